package schema

import (
	"fmt"
	"strings"

	"main/pkg/framing"
)

// reserved holds bytes that cannot appear in a symbol name: the wire
// delimiter and the record field separator.
var reserved = string(framing.Delimiter) + ","

// Universe is the fixed, ordered set of tracked symbols. The zero-based
// index of a symbol doubles as its slot in the shared price table, so
// every process must build the universe from the same symbol list.
type Universe struct {
	symbols []string
	index   map[string]int
}

// NewUniverse builds a universe from an ordered symbol list.
func NewUniverse(symbols []string) (*Universe, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("universe has no symbols")
	}
	u := &Universe{
		symbols: make([]string, 0, len(symbols)),
		index:   make(map[string]int, len(symbols)),
	}
	for _, name := range symbols {
		if name == "" {
			return nil, fmt.Errorf("symbol name is empty")
		}
		if len(name) > SymbolWidth {
			return nil, fmt.Errorf("symbol too long: %s", name)
		}
		if strings.ContainsAny(name, reserved) {
			return nil, fmt.Errorf("symbol contains reserved byte: %s", name)
		}
		if _, ok := u.index[name]; ok {
			return nil, fmt.Errorf("symbol already exists: %s", name)
		}
		u.index[name] = len(u.symbols)
		u.symbols = append(u.symbols, name)
	}
	return u, nil
}

// Count returns the number of symbols.
func (u *Universe) Count() int {
	if u == nil {
		return 0
	}
	return len(u.symbols)
}

// At returns the symbol at a zero-based index.
func (u *Universe) At(index int) (string, bool) {
	if u == nil || index < 0 || index >= len(u.symbols) {
		return "", false
	}
	return u.symbols[index], true
}

// Index returns the table slot for a symbol name.
func (u *Universe) Index(name string) (int, bool) {
	if u == nil {
		return 0, false
	}
	i, ok := u.index[name]
	return i, ok
}

// Symbols returns a copy of the ordered symbol list.
func (u *Universe) Symbols() []string {
	if u == nil {
		return nil
	}
	out := make([]string, len(u.symbols))
	copy(out, u.symbols)
	return out
}
