package device

import (
	"log/slog"

	"github.com/JamesHertz/the-internet-simulator/sim"
)

// FrameLogger is a hook for logging the frame events of devices.
type FrameLogger struct {
	sim.LogHookBase
}

// NewFrameLogger returns a new FrameLogger which will write into the logger.
func NewFrameLogger(logger *slog.Logger) *FrameLogger {
	h := new(FrameLogger)
	h.Logger = logger
	h.DefaultLevel = slog.LevelDebug
	h.Levels = map[*sim.HookPos]slog.Level{
		HookPosFrameParseError: slog.LevelError,
		HookPosFrameSendError:  slog.LevelError,
		HookPosFrameDrop:       slog.LevelWarn,
		HookPosFrameDeliver:    slog.LevelInfo,
	}

	return h
}

// Func writes the frame event into the logger.
func (h *FrameLogger) Func(ctx sim.HookCtx) {
	evt, ok := ctx.Item.(FrameEvent)
	if !ok {
		return
	}

	if !h.Enabled(ctx.Pos) {
		return
	}

	attrs := []slog.Attr{
		slog.String("device", evt.Device.String()),
		slog.Int("ingress", evt.Ingress),
	}

	if named, ok := ctx.Domain.(sim.Named); ok {
		attrs = append(attrs, slog.String("name", named.Name()))
	}

	if len(evt.Egress) > 0 {
		attrs = append(attrs, slog.Any("egress", evt.Egress))
	}

	if evt.Frame != nil {
		attrs = append(attrs,
			slog.String("src", evt.Frame.Source.String()),
			slog.String("dst", evt.Frame.Destination.String()),
			slog.String("protocol", evt.Frame.Protocol.String()),
			slog.Int("payload", len(evt.Frame.Payload)),
		)
	} else {
		attrs = append(attrs, slog.Int("bytes", len(evt.Data)))
	}

	if evt.Err != nil {
		attrs = append(attrs, slog.String("err", evt.Err.Error()))
	}

	h.Log(ctx.Pos, attrs...)
}
