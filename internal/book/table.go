package book

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"main/internal/schema"
	"main/pkg/exception"
	"main/pkg/shm"
)

const (
	symbolWidth = schema.SymbolWidth
	priceWidth  = 8
	// EntrySize is the byte footprint of one table slot.
	EntrySize = symbolWidth + priceWidth
)

var (
	// ErrUntracked is returned for symbols outside the table's universe.
	ErrUntracked = errors.New("book: symbol not tracked")
	// ErrSymbolMismatch is returned when a segment's stored symbols differ from the universe.
	ErrSymbolMismatch = errors.New("book: stored symbols do not match universe")
)

// Table is a fixed-capacity symbol-to-price map in named shared memory.
// Slot order follows the universe, so independently started processes
// agree on the layout. Every entry access happens under the segment's
// cross-process lock.
type Table struct {
	seg      *shm.Segment
	universe *schema.Universe
	unlinked uint32
}

// Create opens or creates the named table under shm.DefaultDir.
func Create(name string, universe *schema.Universe) (*Table, error) {
	return CreateIn(shm.DefaultDir, name, universe)
}

// CreateIn opens or creates the named table under dir. A fresh segment
// gets its symbol fields written and prices zeroed; an existing one is
// verified against the universe and keeps its prices.
func CreateIn(dir, name string, universe *schema.Universe) (*Table, error) {
	if universe == nil || universe.Count() == 0 {
		return nil, exception.ErrInvalidArgument
	}
	seg, err := shm.CreateIn(dir, name, universe.Count()*EntrySize)
	if err != nil {
		return nil, err
	}
	return newTable(seg, universe)
}

// Attach opens an existing named table under shm.DefaultDir.
func Attach(name string, universe *schema.Universe) (*Table, error) {
	return AttachIn(shm.DefaultDir, name, universe)
}

// AttachIn opens an existing named table under dir. It fails with
// shm.ErrNotFound when the name does not exist.
func AttachIn(dir, name string, universe *schema.Universe) (*Table, error) {
	if universe == nil || universe.Count() == 0 {
		return nil, exception.ErrInvalidArgument
	}
	seg, err := shm.AttachIn(dir, name, universe.Count()*EntrySize)
	if err != nil {
		return nil, err
	}
	return newTable(seg, universe)
}

func newTable(seg *shm.Segment, universe *schema.Universe) (*Table, error) {
	t := &Table{seg: seg, universe: universe}
	if err := t.syncSymbols(); err != nil {
		_ = seg.Close()
		return nil, err
	}
	return t, nil
}

// syncSymbols writes empty symbol fields and verifies occupied ones.
func (t *Table) syncSymbols() error {
	if err := t.seg.Lock(); err != nil {
		return err
	}
	defer t.seg.Unlock()
	data := t.seg.Bytes()
	for i := 0; i < t.universe.Count(); i++ {
		name, _ := t.universe.At(i)
		field := data[i*EntrySize : i*EntrySize+symbolWidth]
		switch stored := trimSymbol(field); stored {
		case name:
		case "":
			putSymbol(field, name)
		default:
			return fmt.Errorf("%w: slot %d holds %q want %q", ErrSymbolMismatch, i, stored, name)
		}
	}
	return nil
}

// Created reports whether this handle created the segment.
func (t *Table) Created() bool {
	if t == nil {
		return false
	}
	return t.seg.Created()
}

// Name returns the segment name.
func (t *Table) Name() string {
	if t == nil {
		return ""
	}
	return t.seg.Name()
}

// Update writes the price for a tracked symbol.
func (t *Table) Update(symbol string, price float64) error {
	if t == nil {
		return exception.ErrNilInstance
	}
	idx, ok := t.universe.Index(symbol)
	if !ok {
		return ErrUntracked
	}
	if err := t.seg.Lock(); err != nil {
		return err
	}
	defer t.seg.Unlock()
	putPrice(t.entry(idx), price)
	return nil
}

// Read returns the stored price for a tracked symbol. Slots never
// written by a relay still hold zero.
func (t *Table) Read(symbol string) (float64, error) {
	if t == nil {
		return 0, exception.ErrNilInstance
	}
	idx, ok := t.universe.Index(symbol)
	if !ok {
		return 0, ErrUntracked
	}
	if err := t.seg.Lock(); err != nil {
		return 0, err
	}
	defer t.seg.Unlock()
	return readPrice(t.entry(idx)), nil
}

// Snapshot copies every entry under a single lock hold.
func (t *Table) Snapshot() ([]schema.PricePoint, error) {
	if t == nil {
		return nil, exception.ErrNilInstance
	}
	if err := t.seg.Lock(); err != nil {
		return nil, err
	}
	defer t.seg.Unlock()
	points := make([]schema.PricePoint, 0, t.universe.Count())
	for i := 0; i < t.universe.Count(); i++ {
		name, _ := t.universe.At(i)
		points = append(points, schema.PricePoint{Symbol: name, Price: readPrice(t.entry(i))})
	}
	return points, nil
}

// Close unmaps the table without removing the name.
func (t *Table) Close() error {
	if t == nil {
		return exception.ErrNilInstance
	}
	return t.seg.Close()
}

// Unlink removes the table's name at most once per handle; repeat calls
// are no-ops.
func (t *Table) Unlink() error {
	if t == nil {
		return exception.ErrNilInstance
	}
	if !atomic.CompareAndSwapUint32(&t.unlinked, 0, 1) {
		return nil
	}
	return t.seg.Unlink()
}

func (t *Table) entry(idx int) []byte {
	return t.seg.Bytes()[idx*EntrySize : (idx+1)*EntrySize]
}

func putSymbol(dst []byte, name string) {
	n := copy(dst, name)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

func trimSymbol(src []byte) string {
	if i := bytes.IndexByte(src, 0); i >= 0 {
		return string(src[:i])
	}
	return string(src)
}

func putPrice(entry []byte, price float64) {
	binary.LittleEndian.PutUint64(entry[symbolWidth:], math.Float64bits(price))
}

func readPrice(entry []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(entry[symbolWidth:]))
}
