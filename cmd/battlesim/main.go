package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/fluffyfreak/OpenXcom/internal/ai"
	"github.com/fluffyfreak/OpenXcom/internal/battle"
	"github.com/fluffyfreak/OpenXcom/internal/config"
	"github.com/fluffyfreak/OpenXcom/internal/db"
	"github.com/fluffyfreak/OpenXcom/internal/savegame"
	"github.com/fluffyfreak/OpenXcom/internal/scenario"
	"github.com/fluffyfreak/OpenXcom/internal/sim"
)

const BattleSimConfigPath = "config/battlesim.yaml"

// scenarioList collects repeated -scenario flags.
type scenarioList []string

func (l *scenarioList) String() string { return strings.Join(*l, ",") }

func (l *scenarioList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

type options struct {
	configPath string
	scenarios  scenarioList
	turns      int
	seed       int64
	saveDir    string
	resume     bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "config file (default $OPENXCOM_CONFIG or "+BattleSimConfigPath+")")
	flag.Var(&opts.scenarios, "scenario", "scenario file, may be repeated")
	flag.IntVar(&opts.turns, "turns", 0, "turns to play, overrides config")
	flag.Int64Var(&opts.seed, "seed", 0, "random seed, overrides config")
	flag.StringVar(&opts.saveDir, "save-dir", "", "directory for save files, overrides config")
	flag.BoolVar(&opts.resume, "resume", false, "restore AI state and turn from an existing save")
	flag.Parse()

	if len(opts.scenarios) == 0 {
		fmt.Fprintln(os.Stderr, "at least one -scenario is required")
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx, opts); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfgPath := opts.configPath
	if cfgPath == "" {
		cfgPath = BattleSimConfigPath
		if p := os.Getenv("OPENXCOM_CONFIG"); p != "" {
			cfgPath = p
		}
	}
	cfg, err := config.LoadBattleSim(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if opts.turns > 0 {
		cfg.Turns = opts.turns
	}
	if opts.seed != 0 {
		cfg.Seed = opts.seed
	}
	if opts.saveDir != "" {
		cfg.SaveDir = opts.saveDir
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))
	ai.EnableDebugLogging(logLevel == slog.LevelDebug)

	slog.Info("battlesim starting",
		"log_level", cfg.LogLevel,
		"scenarios", len(opts.scenarios),
		"turns", cfg.Turns,
		"seed", cfg.Seed,
		"difficulty", cfg.Difficulty)

	settings, err := ai.NewSettings(cfg.AI)
	if err != nil {
		return fmt.Errorf("building AI settings: %w", err)
	}

	var states *db.AIStateRepository
	if cfg.Database.Enabled {
		dsn := cfg.Database.DSN()
		if err := db.RunMigrations(ctx, dsn); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		database, err := db.New(ctx, dsn)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		states = database.AIStates()
		slog.Info("database connected", "host", cfg.Database.Host, "dbname", cfg.Database.DBName)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range opts.scenarios {
		seed := uint64(cfg.Seed) + uint64(i)
		g.Go(func() error {
			if err := playScenario(gctx, cfg, settings, states, path, seed, opts.resume); err != nil {
				return fmt.Errorf("scenario %s: %w", path, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	slog.Info("battlesim stopped")
	return nil
}

func playScenario(
	ctx context.Context,
	cfg config.BattleSim,
	settings ai.Settings,
	states *db.AIStateRepository,
	path string,
	seed uint64,
	resume bool,
) error {
	f, err := scenario.Load(path)
	if err != nil {
		return err
	}
	savePath := filepath.Join(cfg.SaveDir, f.Name+".sav.yaml")

	battleOpts := []battle.Option{
		battle.WithSeed(seed),
		battle.WithDifficulty(cfg.Difficulty),
		battle.WithCheatTurn(cfg.AI.CheatTurn),
	}

	var saved *savegame.Save
	if resume {
		saved, err = savegame.Read(savePath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			slog.Warn("no save to resume, starting fresh", "battle", f.Name, "path", savePath)
			saved = nil
		case err != nil:
			return err
		case saved.Battle != f.Name:
			return fmt.Errorf("save %s belongs to battle %s", savePath, saved.Battle)
		default:
			battleOpts = append(battleOpts, battle.WithTurn(saved.Turn))
		}
	}

	sc, err := f.Build(battleOpts...)
	if err != nil {
		return err
	}

	r := sim.New(sc, settings)
	if saved != nil {
		r.Manager().Restore(saved.Records())
		slog.Info("resumed battle", "battle", f.Name, "turn", saved.Turn, "units", len(saved.Units))
	}

	res, err := r.Run(ctx, cfg.Turns)
	if err != nil {
		return err
	}

	records := r.Manager().Records()
	if err := savegame.Write(savePath, savegame.New(sc.Name, r.Battle().Turn(), records)); err != nil {
		return err
	}
	if states != nil {
		if err := states.SaveAll(ctx, sc.Name, records); err != nil {
			return err
		}
	}

	slog.Info("battle finished",
		"battle", res.Battle,
		"turns", res.Turns,
		"actions", res.Actions,
		"over", res.Over,
		"player_alive", res.Alive[battle.FactionPlayer],
		"hostile_alive", res.Alive[battle.FactionHostile],
		"save", savePath)
	return nil
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
