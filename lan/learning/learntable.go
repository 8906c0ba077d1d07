// Package learning provides the table a switch uses to remember which
// interface leads to which address.
package learning

import (
	"sort"
	"sync"

	"github.com/JamesHertz/the-internet-simulator/ethernet"
)

// Table maps a MAC address to the interface it was last seen on.
type Table interface {
	// Learn records that addr was seen on the interface. A newer sighting
	// replaces an older one.
	Learn(addr ethernet.MacAddress, interfaceID int)

	// Lookup returns the interface addr was last seen on.
	Lookup(addr ethernet.MacAddress) (interfaceID int, found bool)

	// Entries returns a snapshot of the table ordered by address.
	Entries() []Mapping

	// Len returns the number of addresses learned.
	Len() int
}

// Mapping is one learned address.
type Mapping struct {
	Address     ethernet.MacAddress `json:"address"`
	InterfaceID int                 `json:"interface"`
}

// NewTable creates an empty Table.
func NewTable() Table {
	t := &table{}
	t.t = make(map[ethernet.MacAddress]int)

	return t
}

type table struct {
	lock sync.RWMutex
	t    map[ethernet.MacAddress]int
}

func (t *table) Learn(addr ethernet.MacAddress, interfaceID int) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.t[addr] = interfaceID
}

func (t *table) Lookup(addr ethernet.MacAddress) (int, bool) {
	t.lock.RLock()
	defer t.lock.RUnlock()

	out, found := t.t[addr]

	return out, found
}

func (t *table) Entries() []Mapping {
	t.lock.RLock()
	entries := make([]Mapping, 0, len(t.t))
	for addr, id := range t.t {
		entries = append(entries, Mapping{Address: addr, InterfaceID: id})
	}
	t.lock.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Address.String() < entries[j].Address.String()
	})

	return entries
}

func (t *table) Len() int {
	t.lock.RLock()
	defer t.lock.RUnlock()

	return len(t.t)
}
