package recording

import (
	"strconv"
	"strings"
	"time"

	"github.com/JamesHertz/the-internet-simulator/device"
	"github.com/JamesHertz/the-internet-simulator/sim"
)

// FrameEventTable is the table FrameRecorder writes into.
const FrameEventTable = "frame_event"

// FrameEventEntry is one row of the frame event table.
type FrameEventEntry struct {
	ID          string
	Time        float64
	Device      string
	Event       string
	Ingress     int
	Egress      string
	Source      string
	Destination string
	Protocol    string
	Length      int
	Error       string
}

// FrameRecorder is a hook that records every frame event into a DataRecorder.
// It can be attached to many devices at once.
type FrameRecorder struct {
	recorder DataRecorder
	start    time.Time
}

// NewFrameRecorder creates the frame event table and returns a hook writing
// into it.
func NewFrameRecorder(recorder DataRecorder) *FrameRecorder {
	recorder.CreateTable(FrameEventTable, FrameEventEntry{})

	return &FrameRecorder{
		recorder: recorder,
		start:    time.Now(),
	}
}

// Func records the frame event.
func (r *FrameRecorder) Func(ctx sim.HookCtx) {
	evt, ok := ctx.Item.(device.FrameEvent)
	if !ok {
		return
	}

	entry := FrameEventEntry{
		ID:      sim.GetIDGenerator().Generate(),
		Time:    time.Since(r.start).Seconds(),
		Device:  evt.Device.String(),
		Event:   ctx.Pos.Name,
		Ingress: evt.Ingress,
		Egress:  joinInts(evt.Egress),
		Length:  len(evt.Data),
	}

	if evt.Frame != nil {
		entry.Source = evt.Frame.Source.String()
		entry.Destination = evt.Frame.Destination.String()
		entry.Protocol = evt.Frame.Protocol.String()
	}

	if evt.Err != nil {
		entry.Error = evt.Err.Error()
	}

	r.recorder.InsertData(FrameEventTable, entry)
}

func joinInts(ids []int) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = strconv.Itoa(id)
	}

	return strings.Join(s, ",")
}
