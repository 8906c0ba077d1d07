// Package capture writes the frames seen by devices into pcap files that
// standard tools such as Wireshark can read.
package capture

import (
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/JamesHertz/the-internet-simulator/device"
	"github.com/JamesHertz/the-internet-simulator/sim"
)

const snapLen = 65536

// PcapWriter is a hook that writes one Ethernet II record for every frame
// event at the selected hook positions. It can be attached to many devices at
// once.
type PcapWriter struct {
	lock      sync.Mutex
	w         *pcapgo.Writer
	closer    io.Closer
	positions map[*sim.HookPos]bool
	count     int
	err       error
}

// NewPcapWriter writes the pcap file header into w and returns a hook writing
// the records after it. By default, the frames devices receive are captured.
func NewPcapWriter(w io.Writer) (*PcapWriter, error) {
	pw := &PcapWriter{
		w: pcapgo.NewWriter(w),
		positions: map[*sim.HookPos]bool{
			device.HookPosFrameRecv: true,
		},
	}

	err := pw.w.WriteFileHeader(snapLen, layers.LinkTypeEthernet)
	if err != nil {
		return nil, fmt.Errorf("writing pcap header: %w", err)
	}

	return pw, nil
}

// NewPcapFile creates the file at path and captures into it.
func NewPcapFile(path string) (*PcapWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	pw, err := NewPcapWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	pw.closer = f

	return pw, nil
}

// WithPositions replaces the hook positions that are captured.
func (p *PcapWriter) WithPositions(positions ...*sim.HookPos) *PcapWriter {
	p.positions = make(map[*sim.HookPos]bool)
	for _, pos := range positions {
		p.positions[pos] = true
	}

	return p
}

// Func writes the frame of the event, if any.
func (p *PcapWriter) Func(ctx sim.HookCtx) {
	if !p.positions[ctx.Pos] {
		return
	}

	evt, ok := ctx.Item.(device.FrameEvent)
	if !ok || evt.Frame == nil {
		return
	}

	buf := gopacket.NewSerializeBuffer()
	err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{},
		&layers.Ethernet{
			SrcMAC:       net.HardwareAddr(evt.Frame.Source.Bytes()),
			DstMAC:       net.HardwareAddr(evt.Frame.Destination.Bytes()),
			EthernetType: layers.EthernetType(evt.Frame.Protocol),
		},
		gopacket.Payload(evt.Frame.Payload),
	)

	p.lock.Lock()
	defer p.lock.Unlock()

	if err == nil {
		data := buf.Bytes()
		err = p.w.WritePacket(gopacket.CaptureInfo{
			Timestamp:     time.Now(),
			CaptureLength: len(data),
			Length:        len(data),
		}, data)
	}

	if err != nil {
		if p.err == nil {
			p.err = fmt.Errorf("writing pcap record: %w", err)
		}

		return
	}

	p.count++
}

// Count returns the number of records written.
func (p *PcapWriter) Count() int {
	p.lock.Lock()
	defer p.lock.Unlock()

	return p.count
}

// Err returns the first error met while writing records.
func (p *PcapWriter) Err() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	return p.err
}

// Close closes the underlying file, if the writer owns one.
func (p *PcapWriter) Close() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.closer == nil {
		return p.err
	}

	err := p.closer.Close()
	p.closer = nil

	if p.err != nil {
		return p.err
	}

	return err
}
