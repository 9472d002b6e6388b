package battle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fluffyfreak/OpenXcom/internal/battle/geo"
)

// ErrRejected is returned for actions the resolver cannot carry out. The
// acting unit is done for now, but the turn goes on.
var ErrRejected = errors.New("action rejected")

// TUPickup is the TU cost of taking an item from the belt.
const TUPickup = 4

// HitNotifier is called for every unit that takes damage.
type HitNotifier func(id UnitID)

// Resolver executes battle actions against a Battle.
type Resolver struct {
	battle *Battle
	onHit  HitNotifier
}

// NewResolver creates a resolver. onHit may be nil.
func NewResolver(b *Battle, onHit HitNotifier) *Resolver {
	return &Resolver{battle: b, onHit: onHit}
}

// Execute carries out one action.
func (r *Resolver) Execute(ctx context.Context, a *Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	actor, ok := r.battle.Unit(a.Actor)
	if !ok {
		return fmt.Errorf("actor %d: unknown unit", a.Actor)
	}
	if actor.IsOut() {
		return fmt.Errorf("actor %d is out: %w", a.Actor, ErrRejected)
	}

	switch a.Type {
	case ActionNone, ActionRethink:
		return nil
	case ActionWalk:
		return r.walk(actor, a)
	case ActionAutoShot, ActionSnapShot, ActionAimedShot:
		return r.shoot(actor, a)
	case ActionThrow:
		return r.throw(actor, a)
	case ActionLaunch:
		return r.launch(actor, a)
	case ActionHit:
		return r.hit(actor, a)
	case ActionPanic, ActionMindControl:
		return r.psi(actor, a)
	}
	return fmt.Errorf("%s: %w", a.Type, ErrRejected)
}

func (r *Resolver) walk(u *Unit, a *Action) error {
	budget := u.TU - a.Reserve
	path, _, ok := r.battle.Path(u, a.Target, -1)
	if !ok || len(path) == 0 || budget <= 0 {
		return fmt.Errorf("walk %v -> %v: %w", u.Pos, a.Target, ErrRejected)
	}

	steps := 0
	for _, next := range path {
		if r.battle.UnitAt(next) != nil {
			break
		}
		cost := stepCost(r.battle.grid, u.Pos, next)
		if cost > budget {
			break
		}
		if dir := geo.DirectionTo(u.Pos, next); dir != geo.NoDirection {
			u.Direction = dir
		}
		u.Pos = next
		u.TU -= cost
		budget -= cost
		steps++
	}
	if steps == 0 {
		return fmt.Errorf("walk %v -> %v blocked: %w", u.Pos, a.Target, ErrRejected)
	}
	if a.FinalFacing != geo.NoDirection && u.Pos == a.Target {
		u.Direction = a.FinalFacing
	}

	slog.Debug("unit walked", "unit", u.ID, "to", u.Pos, "steps", steps, "tu", u.TU)
	return nil
}

func stepCost(m *geo.Map, from, to geo.Position) int {
	if from.Z != to.Z {
		return geo.TUClimb
	}
	cost := m.Tile(to).EnterCost()
	if from.X != to.X && from.Y != to.Y {
		cost += cost / 2
	}
	return cost
}

func (r *Resolver) shoot(u *Unit, a *Action) error {
	w := a.Weapon
	if w == nil || !w.Loaded() {
		return fmt.Errorf("%s without ammo: %w", a.Type, ErrRejected)
	}
	if !u.SpendTU(u.ActionTU(a.Type, w)) {
		return fmt.Errorf("%s: not enough TU: %w", a.Type, ErrRejected)
	}
	r.face(u, a.Target)

	shots, acc := 1, w.Rule.AccuracySnap
	switch a.Type {
	case ActionAutoShot:
		shots, acc = max(1, w.Rule.AutoShots), w.Rule.AccuracyAuto
	case ActionAimedShot:
		acc = w.Rule.AccuracyAimed
	}
	chance := u.Stats.FiringAccuracy * acc / 100

	for range shots {
		if !w.SpendRound() {
			break
		}
		target := r.battle.UnitAt(a.Target)
		if target == nil || !r.battle.CanTarget(u.Pos, a.Target, u, target) {
			continue
		}
		if r.battle.rng.IntN(100) < chance {
			r.damage(target, r.roll(w.Power()))
		}
	}
	return nil
}

func (r *Resolver) throw(u *Unit, a *Action) error {
	g := a.Weapon
	if g == nil {
		return fmt.Errorf("throw without item: %w", ErrRejected)
	}
	cost := TUPickup + u.ActionTU(ActionPrime, g) + u.ActionTU(ActionThrow, g)
	if !u.SpendTU(cost) {
		return fmt.Errorf("throw: not enough TU: %w", ErrRejected)
	}
	r.face(u, a.Target)
	u.RemoveFromBelt(g)

	landing := a.Target
	if r.battle.rng.IntN(100) >= u.Stats.ThrowingAccuracy {
		landing = landing.Add(geo.DirectionVector(r.battle.rng.IntN(8)))
		if !r.battle.grid.InBounds(landing) {
			landing = a.Target
		}
	}
	r.explode(landing, g.Rule.ExplosionRadius(), g.Rule.Power)
	return nil
}

func (r *Resolver) launch(u *Unit, a *Action) error {
	w := a.Weapon
	if w == nil || !w.Loaded() {
		return fmt.Errorf("launch without ammo: %w", ErrRejected)
	}
	if !u.SpendTU(u.ActionTU(ActionLaunch, w)) {
		return fmt.Errorf("launch: not enough TU: %w", ErrRejected)
	}
	w.SpendRound()

	impact := a.Target
	if n := len(a.Waypoints); n > 0 {
		impact = a.Waypoints[n-1]
	}
	r.face(u, impact)
	r.explode(impact, w.ExplosionRadius(), w.Power())
	return nil
}

func (r *Resolver) hit(u *Unit, a *Action) error {
	w := a.Weapon
	if w == nil {
		return fmt.Errorf("hit without weapon: %w", ErrRejected)
	}
	target := r.battle.UnitAt(a.Target)
	if target == nil || !geo.Adjacent(u.Pos, a.Target) {
		return fmt.Errorf("hit: no adjacent target at %v: %w", a.Target, ErrRejected)
	}
	if !u.SpendTU(u.ActionTU(ActionHit, w)) {
		return fmt.Errorf("hit: not enough TU: %w", ErrRejected)
	}
	r.face(u, a.Target)

	chance := u.Stats.MeleeAccuracy * w.Rule.AccuracyMelee / 100
	if r.battle.rng.IntN(100) < chance {
		r.damage(target, r.roll(w.Rule.Power+u.Stats.Strength/2))
	}
	return nil
}

func (r *Resolver) psi(u *Unit, a *Action) error {
	target := r.battle.UnitAt(a.Target)
	if target == nil {
		return fmt.Errorf("%s: no target at %v: %w", a.Type, a.Target, ErrRejected)
	}
	weapon := a.Weapon
	if weapon == nil {
		weapon = &Item{Rule: AlienPsiWeapon}
	}
	if !u.SpendTU(u.ActionTU(a.Type, weapon)) {
		return fmt.Errorf("%s: not enough TU: %w", a.Type, ErrRejected)
	}

	attack := u.Stats.PsiStrength * u.Stats.PsiSkill / 50
	defence := target.Stats.PsiStrength + target.Stats.PsiSkill/5
	chance := 50 + attack - defence - geo.Distance(u.Pos, target.Pos)
	if r.battle.rng.IntN(100) >= chance {
		slog.Debug("psi attack resisted", "unit", u.ID, "target", target.ID, "chance", chance)
		return nil
	}

	switch a.Type {
	case ActionPanic:
		target.Morale = max(0, target.Morale-50)
	case ActionMindControl:
		target.Faction = u.Faction
		target.TU = 0
		target.Morale = 100
	}
	slog.Debug("psi attack succeeded", "unit", u.ID, "target", target.ID, "type", a.Type)
	return nil
}

func (r *Resolver) explode(center geo.Position, radius, power int) {
	for _, v := range r.battle.order {
		if v.IsOut() || absInt(v.Pos.Z-center.Z) > 1 {
			continue
		}
		if geo.Distance(v.Pos, center) > radius {
			continue
		}
		if v.Pos != center && !r.battle.grid.CanSee(center, v.Pos) {
			continue
		}
		r.damage(v, r.roll(power))
	}
}

// roll randomises damage between half and one and a half times the power.
func (r *Resolver) roll(power int) int {
	if power <= 0 {
		return 0
	}
	return power/2 + r.battle.rng.IntN(power+1)
}

func (r *Resolver) damage(v *Unit, power int) {
	dealt := v.TakeDamage(power)
	if dealt == 0 {
		return
	}
	slog.Debug("unit damaged", "unit", v.ID, "damage", dealt, "health", v.Health)
	if r.onHit != nil {
		r.onHit(v.ID)
	}
}

func (r *Resolver) face(u *Unit, p geo.Position) {
	if dir := geo.DirectionTo(u.Pos, p); dir != geo.NoDirection {
		u.Direction = dir
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
