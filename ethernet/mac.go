package ethernet

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// MACAddrSize is the number of bytes in a MAC address.
const MACAddrSize = 6

const macAddrStrLen = 3*MACAddrSize - 1

// ErrInvalidMacAddress is returned when a MAC address cannot be built from
// raw bytes or parsed from text.
var ErrInvalidMacAddress = errors.New("invalid mac address")

// MacAddress identifies a device on the simulated network. It is a value type
// and can be used as a map key.
type MacAddress [MACAddrSize]byte

// BroadcastMAC is the address every device listens to. Switches never learn
// it as a source.
var BroadcastMAC = MacAddress{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// BuildMacAddress creates a MacAddress from exactly six raw bytes.
func BuildMacAddress(b []byte) (MacAddress, error) {
	var addr MacAddress

	if len(b) != MACAddrSize {
		return addr, fmt.Errorf("%w: %d bytes given, want %d",
			ErrInvalidMacAddress, len(b), MACAddrSize)
	}

	copy(addr[:], b)

	return addr, nil
}

// ParseMacAddress parses the XX:XX:XX:XX:XX:XX form. Hex digits may be upper
// or lower case.
func ParseMacAddress(s string) (MacAddress, error) {
	var addr MacAddress

	if len(s) != macAddrStrLen {
		return addr, fmt.Errorf("%w: %q has length %d, want %d",
			ErrInvalidMacAddress, s, len(s), macAddrStrLen)
	}

	groups := strings.Split(s, ":")
	if len(groups) != MACAddrSize {
		return addr, fmt.Errorf("%w: %q is not colon separated",
			ErrInvalidMacAddress, s)
	}

	for i, group := range groups {
		if len(group) != 2 {
			return addr, fmt.Errorf("%w: %q has a malformed group %q",
				ErrInvalidMacAddress, s, group)
		}

		b, err := hex.DecodeString(group)
		if err != nil {
			return addr, fmt.Errorf("%w: %q: %v", ErrInvalidMacAddress, s, err)
		}

		addr[i] = b[0]
	}

	return addr, nil
}

// MustParseMacAddress is like ParseMacAddress but panics on error.
func MustParseMacAddress(s string) MacAddress {
	addr, err := ParseMacAddress(s)
	if err != nil {
		panic(err)
	}

	return addr
}

// Bytes returns a copy of the address bytes.
func (a MacAddress) Bytes() []byte {
	b := make([]byte, MACAddrSize)
	copy(b, a[:])

	return b
}

// IsBroadcast tells if the address is the broadcast address.
func (a MacAddress) IsBroadcast() bool {
	return a == BroadcastMAC
}

// String formats the address as six upper case hex groups.
func (a MacAddress) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X",
		a[0], a[1], a[2], a[3], a[4], a[5])
}

// MarshalText implements encoding.TextMarshaler.
func (a MacAddress) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *MacAddress) UnmarshalText(text []byte) error {
	addr, err := ParseMacAddress(string(text))
	if err != nil {
		return err
	}

	*a = addr

	return nil
}
