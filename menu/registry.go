// Package menu is the selector registry: operator-visible names bound to a
// factory that pairs a board description with a driver for its processor.
package menu

import (
	"fmt"
	"sync"

	"incircuit-go/board"
	"incircuit-go/cpu"
	"incircuit-go/errcode"
)

// NameWidth is the display width of an entry name.
const NameWidth = 15

// Tag classifies an entry.
type Tag uint8

const (
	Generic Tag = iota // driver only: bus access without a board map
	Board              // a specific board
)

func (t Tag) String() string {
	if t == Generic {
		return "generic"
	}
	return "board"
}

// Factory builds the description and a fresh driver on w.
type Factory func(w cpu.Wire, t cpu.Timing) (*board.Description, cpu.Driver, error)

type Entry struct {
	Name   string
	Tag    Tag
	Family cpu.Family
	New    Factory
}

var (
	mu      sync.RWMutex
	entries []Entry
	byName  = map[string]int{}
)

// Register adds e. It panics on an empty, over-long or duplicate name or a
// missing factory, to catch mistakes at start-up.
func Register(e Entry) {
	mu.Lock()
	defer mu.Unlock()
	switch {
	case e.Name == "":
		panic("menu: empty entry name")
	case len(e.Name) > NameWidth:
		panic(fmt.Sprintf("menu: name %q longer than %d", e.Name, NameWidth))
	case e.New == nil:
		panic(fmt.Sprintf("menu: no factory for %q", e.Name))
	}
	if _, exists := byName[e.Name]; exists {
		panic(fmt.Sprintf("menu: entry %q already registered", e.Name))
	}
	byName[e.Name] = len(entries)
	entries = append(entries, e)
}

// Lookup finds an entry by name.
func Lookup(name string) (Entry, bool) {
	mu.RLock()
	defer mu.RUnlock()
	i, ok := byName[name]
	if !ok {
		return Entry{}, false
	}
	return entries[i], true
}

// Entries lists every entry in registration order.
func Entries() []Entry {
	mu.RLock()
	defer mu.RUnlock()
	return append([]Entry(nil), entries...)
}

// Build runs the named entry's factory.
func Build(name string, w cpu.Wire, t cpu.Timing) (Entry, *board.Description, cpu.Driver, error) {
	e, ok := Lookup(name)
	if !ok {
		return Entry{}, nil, nil, errcode.New(errcode.UnknownBoard, "menu", name)
	}
	desc, drv, err := e.New(w, t)
	if err != nil {
		return e, nil, nil, err
	}
	if desc.Family == "" {
		desc.Family = e.Family
	}
	return e, desc, drv, nil
}
