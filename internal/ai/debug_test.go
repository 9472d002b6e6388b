package ai

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fluffyfreak/OpenXcom/internal/battle/geo"
	"github.com/fluffyfreak/OpenXcom/internal/testutil"
)

func TestEnableDebugLogging(t *testing.T) {
	EnableDebugLogging(false)
	t.Cleanup(func() { EnableDebugLogging(false) })

	tests := []struct {
		name    string
		enabled bool
	}{
		{"enable", true},
		{"disable", false},
		{"enable again", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			EnableDebugLogging(tt.enabled)
			assert.Equal(t, tt.enabled, IsDebugEnabled())
		})
	}
}

// captureLog routes the default logger to a buffer at debug level for the
// rest of the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return &buf
}

func TestThinkTrace(t *testing.T) {
	t.Cleanup(func() { EnableDebugLogging(false) })

	tests := []struct {
		name    string
		enabled bool
		want    []string
	}{
		{
			name:    "trace on",
			enabled: true,
			want:    []string{`msg="AI decision"`, "unit=10", "mode=combat", "action=snapshot", "visible=1", "spotting=1"},
		},
		{
			name:    "trace off",
			enabled: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alien := testutil.ArmedAlien(10, geo.Pos(5, 5, 0))
			soldier := testutil.Soldier(1, geo.Pos(5, 12, 0))
			b := testutil.NewBattle(t, 30, 30, 1).Unit(alien, soldier).Build()
			s := newTestState(t, b, 10, NoNode)

			buf := captureLog(t)
			EnableDebugLogging(tt.enabled)
			think(s)

			if !tt.enabled {
				assert.Empty(t, buf.String())
				return
			}
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestIsDebugEnabled_Concurrent(t *testing.T) {
	EnableDebugLogging(true)
	t.Cleanup(func() { EnableDebugLogging(false) })

	done := make(chan bool)
	for range 100 {
		go func() {
			for range 1000 {
				_ = IsDebugEnabled()
			}
			done <- true
		}()
	}

	for range 100 {
		<-done
	}
}
