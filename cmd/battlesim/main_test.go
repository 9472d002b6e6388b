package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluffyfreak/OpenXcom/internal/ai"
	"github.com/fluffyfreak/OpenXcom/internal/config"
	"github.com/fluffyfreak/OpenXcom/internal/savegame"
)

var crashSite = filepath.Join("..", "..", "internal", "scenario", "testdata", "crash_site.yaml")

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("verbose"))
}

func TestScenarioList(t *testing.T) {
	var l scenarioList
	require.NoError(t, l.Set("a.yaml"))
	require.NoError(t, l.Set("b.yaml"))
	assert.Equal(t, scenarioList{"a.yaml", "b.yaml"}, l)
	assert.Equal(t, "a.yaml,b.yaml", l.String())
}

func TestPlayScenarioWritesAndResumes(t *testing.T) {
	cfg := config.DefaultBattleSim()
	cfg.Turns = 1
	cfg.SaveDir = t.TempDir()
	ctx := context.Background()

	require.NoError(t, playScenario(ctx, cfg, ai.DefaultSettings(), nil, crashSite, 7, false))

	savePath := filepath.Join(cfg.SaveDir, "crash-site.sav.yaml")
	first, err := savegame.Read(savePath)
	require.NoError(t, err)
	assert.Equal(t, "crash-site", first.Battle)
	assert.Equal(t, 2, first.Turn)
	assert.NotEmpty(t, first.Units)

	require.NoError(t, playScenario(ctx, cfg, ai.DefaultSettings(), nil, crashSite, 7, true))

	second, err := savegame.Read(savePath)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, second.Turn, first.Turn)
}

func TestPlayScenarioResumeWithoutSave(t *testing.T) {
	cfg := config.DefaultBattleSim()
	cfg.Turns = 1
	cfg.SaveDir = t.TempDir()

	require.NoError(t, playScenario(context.Background(), cfg, ai.DefaultSettings(), nil, crashSite, 7, true))

	_, err := savegame.Read(filepath.Join(cfg.SaveDir, "crash-site.sav.yaml"))
	assert.NoError(t, err)
}

func TestPlayScenarioMissingFile(t *testing.T) {
	cfg := config.DefaultBattleSim()
	cfg.SaveDir = t.TempDir()

	err := playScenario(context.Background(), cfg, ai.DefaultSettings(), nil, "missing.yaml", 1, false)
	assert.Error(t, err)
}
