// Package topology loads network descriptions from DOT or YAML files and
// turns them into a ready to run simulator.
package topology

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/JamesHertz/the-internet-simulator/ethernet"
	"github.com/JamesHertz/the-internet-simulator/sim"
)

// Kind tells what a device is.
type Kind string

// Kinds of devices a topology can describe.
const (
	KindSwitch Kind = "switch"
	KindHost   Kind = "host"
)

// Device describes one device of the network.
type Device struct {
	Name string `yaml:"name"`
	Kind Kind   `yaml:"kind"`
	MAC  string `yaml:"mac"`

	// Interfaces is the number of interfaces. Zero means as many as the links
	// of the device require.
	Interfaces int `yaml:"interfaces,omitempty"`
}

// Link connects a port of one device to a port of another. Ports are written
// "ethN" or "N".
type Link struct {
	From     string `yaml:"from"`
	FromPort string `yaml:"from_port"`
	To       string `yaml:"to"`
	ToPort   string `yaml:"to_port"`
}

func (l Link) String() string {
	return fmt.Sprintf("%s:%s -- %s:%s", l.From, l.FromPort, l.To, l.ToPort)
}

// T is a network topology.
type T struct {
	Devices []Device `yaml:"devices"`
	Links   []Link   `yaml:"links"`
}

// ParseFile reads the topology from a file. Files ending in .dot or .gv are
// parsed as DOT, files ending in .yaml or .yml as YAML.
func ParseFile(path string) (*T, error) {
	p, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ParseFile: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".dot", ".gv":
		return ParseDOT(p)
	case ".yaml", ".yml":
		return ParseYAML(p)
	default:
		return nil, fmt.Errorf("ParseFile: unknown topology format %q", path)
	}
}

// ParsePort returns the interface id a port name refers to.
func ParsePort(port string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(port, "eth"))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid port %q", port)
	}

	return n, nil
}

// Validate checks the whole topology and reports every problem found.
func (t *T) Validate() error {
	_, err := t.resolve()
	return err
}

// resolvedDevice is a device whose address and interface count are known.
type resolvedDevice struct {
	Device
	mac           ethernet.MacAddress
	numInterfaces int
}

type resolvedLink struct {
	from, to         *resolvedDevice
	fromPort, toPort int
}

type resolved struct {
	devices []*resolvedDevice
	byName  map[string]*resolvedDevice
	links   []resolvedLink
}

func (t *T) resolve() (*resolved, error) {
	var errs *multierror.Error

	r := &resolved{byName: make(map[string]*resolvedDevice)}
	macs := make(map[ethernet.MacAddress]string)

	for _, d := range t.Devices {
		rd, err := resolveDevice(d)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}

		if _, dup := r.byName[d.Name]; dup {
			errs = multierror.Append(errs,
				fmt.Errorf("device %s: defined more than once", d.Name))
			continue
		}

		if other, dup := macs[rd.mac]; dup {
			errs = multierror.Append(errs,
				fmt.Errorf("device %s: MAC %s already used by %s",
					d.Name, rd.mac, other))
			continue
		}

		macs[rd.mac] = d.Name
		r.byName[d.Name] = rd
		r.devices = append(r.devices, rd)
	}

	maxPort := make(map[*resolvedDevice]int)
	usedPorts := make(map[*resolvedDevice]map[int]bool)
	usePort := func(l Link, d *resolvedDevice, port int) error {
		if usedPorts[d] == nil {
			usedPorts[d] = make(map[int]bool)
		}

		if usedPorts[d][port] {
			return fmt.Errorf("link %s: port %d of %s used twice",
				l, port, d.Name)
		}

		usedPorts[d][port] = true
		if port+1 > maxPort[d] {
			maxPort[d] = port + 1
		}

		return nil
	}

	for _, l := range t.Links {
		rl, err := r.resolveLink(l)
		if err == nil {
			err = usePort(l, rl.from, rl.fromPort)
		}

		if err == nil {
			err = usePort(l, rl.to, rl.toPort)
		}

		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}

		r.links = append(r.links, rl)
	}

	for _, d := range r.devices {
		switch {
		case d.Interfaces == 0:
			d.numInterfaces = max(maxPort[d], 1)
		case d.Interfaces < maxPort[d]:
			errs = multierror.Append(errs,
				fmt.Errorf("device %s: has %d interfaces, links need %d",
					d.Name, d.Interfaces, maxPort[d]))
		default:
			d.numInterfaces = d.Interfaces
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	return r, nil
}

func resolveDevice(d Device) (*resolvedDevice, error) {
	if err := sim.ValidateName(d.Name); err != nil {
		return nil, fmt.Errorf("device: %w", err)
	}

	if d.Kind != KindSwitch && d.Kind != KindHost {
		return nil, fmt.Errorf("device %s: unknown kind %q", d.Name, d.Kind)
	}

	mac, err := ethernet.ParseMacAddress(d.MAC)
	if err != nil {
		return nil, fmt.Errorf("device %s: mac %q: %w", d.Name, d.MAC, err)
	}

	if d.Kind == KindHost && mac.IsBroadcast() {
		return nil, fmt.Errorf("device %s: host cannot use the broadcast MAC",
			d.Name)
	}

	if d.Interfaces < 0 {
		return nil, fmt.Errorf("device %s: negative interface count", d.Name)
	}

	return &resolvedDevice{Device: d, mac: mac}, nil
}

func (r *resolved) resolveLink(l Link) (resolvedLink, error) {
	rl := resolvedLink{
		from: r.byName[l.From],
		to:   r.byName[l.To],
	}

	if rl.from == nil || rl.to == nil {
		return rl, fmt.Errorf("link %s: has unknown devices", l)
	}

	var err error

	rl.fromPort, err = ParsePort(l.FromPort)
	if err != nil {
		return rl, fmt.Errorf("link %s: %w", l, err)
	}

	rl.toPort, err = ParsePort(l.ToPort)
	if err != nil {
		return rl, fmt.Errorf("link %s: %w", l, err)
	}

	return rl, nil
}
