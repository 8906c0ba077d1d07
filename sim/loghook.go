package sim

import (
	"context"
	"log/slog"
)

// A LogHook is a hook that is resonsible for recording information from the
// simulation
type LogHook interface {
	Hook
}

// LogHookBase proovides the common logic for all LogHooks.
type LogHookBase struct {
	*slog.Logger

	// Levels maps a hook position to the level it is logged at. Positions not
	// listed are logged at DefaultLevel.
	Levels       map[*HookPos]slog.Level
	DefaultLevel slog.Level
}

// LevelOf returns the level a hook position is logged at.
func (h *LogHookBase) LevelOf(pos *HookPos) slog.Level {
	if level, found := h.Levels[pos]; found {
		return level
	}

	return h.DefaultLevel
}

// Enabled reports whether the hook position would produce any output. Hooks
// call it before building attributes.
func (h *LogHookBase) Enabled(pos *HookPos) bool {
	return h.Logger.Enabled(context.Background(), h.LevelOf(pos))
}

// Log writes one record for the hook position.
func (h *LogHookBase) Log(pos *HookPos, attrs ...slog.Attr) {
	h.LogAttrs(context.Background(), h.LevelOf(pos), pos.Name, attrs...)
}
