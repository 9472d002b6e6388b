package ai

import (
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ThreatEnv is the environment a threat rule is evaluated against.
type ThreatEnv struct {
	WasHit     bool
	Known      int
	Visible    int
	Spotting   int
	HealthPct  int
	Morale     int
	Aggression int
	TU         int
}

// ThreatRule decides whether a unit considers its survival threatened.
// The condition is compiled once into expr bytecode.
type ThreatRule struct {
	src     string
	program *vm.Program
}

// CompileThreatRule compiles a boolean expr condition over ThreatEnv.
func CompileThreatRule(src string) (*ThreatRule, error) {
	prog, err := expr.Compile(src, expr.Env(ThreatEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile threat rule %q: %w", src, err)
	}
	return &ThreatRule{src: src, program: prog}, nil
}

// Eval runs the rule. A runtime error counts as no threat.
func (r *ThreatRule) Eval(env ThreatEnv) bool {
	if r == nil {
		return env.WasHit
	}
	result, err := vm.Run(r.program, env)
	if err != nil {
		slog.Warn("threat rule error", "rule", r.src, "error", err)
		return false
	}
	match, ok := result.(bool)
	return ok && match
}

func (r *ThreatRule) String() string {
	if r == nil {
		return ""
	}
	return r.src
}
