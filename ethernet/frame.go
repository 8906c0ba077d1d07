// Package ethernet implements the Ethernet-like frame carried over simulated
// links.
//
// The wire layout is big-endian with no padding:
//
//	source(6) | destination(6) | protocol(2) | payload | trailer(4)
//
// The trailer stands in for the CRC. It is written as zeros and is stripped,
// not checked, when decoding.
package ethernet

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// CRCSize is the size of the zero trailer that stands in for the CRC.
	CRCSize = 4

	// HeaderSize is the size of the addresses plus the protocol field.
	HeaderSize = 2*MACAddrSize + 2

	// MinFrameSize is the size of a frame with an empty payload.
	MinFrameSize = HeaderSize + CRCSize
)

// ErrMissingBytes is returned when a buffer ends before a field is complete.
var ErrMissingBytes = errors.New("missing bytes")

// InvalidFieldValueError is returned when a field holds a value outside of
// its allowed set.
type InvalidFieldValueError struct {
	Field string
	Value uint64
}

func (e *InvalidFieldValueError) Error() string {
	return fmt.Sprintf("invalid value %#x for field %s", e.Value, e.Field)
}

// Protocol identifies what the payload carries.
type Protocol uint16

// Supported protocols.
const (
	ProtocolIPv4 Protocol = 0x0800
	ProtocolARP  Protocol = 0x0806
)

// Valid tells if p is one of the supported protocols.
func (p Protocol) Valid() bool {
	switch p {
	case ProtocolIPv4, ProtocolARP:
		return true
	default:
		return false
	}
}

func (p Protocol) String() string {
	switch p {
	case ProtocolIPv4:
		return "IPv4"
	case ProtocolARP:
		return "ARP"
	default:
		return fmt.Sprintf("Protocol(%#04x)", uint16(p))
	}
}

// Frame is one Ethernet protocol data unit.
type Frame struct {
	Source      MacAddress
	Destination MacAddress
	Protocol    Protocol
	Payload     []byte
}

// Size returns the number of bytes the encoded frame takes.
func (f *Frame) Size() int {
	return MinFrameSize + len(f.Payload)
}

func (f *Frame) String() string {
	return fmt.Sprintf("%s -> %s %s (%d bytes)",
		f.Source, f.Destination, f.Protocol, len(f.Payload))
}

// Encode serializes the frame.
func Encode(f *Frame) []byte {
	buf := make([]byte, 0, f.Size())

	buf = append(buf, f.Source[:]...)
	buf = append(buf, f.Destination[:]...)
	buf = binary.BigEndian.AppendUint16(buf, uint16(f.Protocol))
	buf = append(buf, f.Payload...)
	buf = append(buf, make([]byte, CRCSize)...)

	return buf
}

// Decode parses a frame. The returned payload does not alias data.
func Decode(data []byte) (*Frame, error) {
	p := parser{data: data}

	f := &Frame{}

	if err := p.chunk(f.Source[:]); err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}

	if err := p.chunk(f.Destination[:]); err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}

	protocol, err := p.uint16()
	if err != nil {
		return nil, fmt.Errorf("protocol: %w", err)
	}

	rest := p.rest()
	if len(rest) < CRCSize {
		return nil, fmt.Errorf("trailer: %w", ErrMissingBytes)
	}

	f.Protocol = Protocol(protocol)
	if !f.Protocol.Valid() {
		return nil, &InvalidFieldValueError{
			Field: "protocol",
			Value: uint64(protocol),
		}
	}

	f.Payload = append([]byte{}, rest[:len(rest)-CRCSize]...)

	return f, nil
}

// PeekDestination returns the destination address without decoding the rest
// of the frame.
func PeekDestination(data []byte) (MacAddress, error) {
	var addr MacAddress

	if len(data) < 2*MACAddrSize {
		return addr, ErrMissingBytes
	}

	copy(addr[:], data[MACAddrSize:2*MACAddrSize])

	return addr, nil
}

type parser struct {
	data []byte
	pos  int
}

func (p *parser) chunk(dst []byte) error {
	if len(p.data)-p.pos < len(dst) {
		return ErrMissingBytes
	}

	copy(dst, p.data[p.pos:])
	p.pos += len(dst)

	return nil
}

func (p *parser) uint16() (uint16, error) {
	var b [2]byte
	if err := p.chunk(b[:]); err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint16(b[:]), nil
}

func (p *parser) rest() []byte {
	return p.data[p.pos:]
}
