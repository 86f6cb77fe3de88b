package plancache

import (
	"context"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ErrCorrupt is returned by Load when stored content cannot be decoded.
var ErrCorrupt = errors.New("plancache: corrupt entry")

// Key identifies a plan by bank and transform length.
type Key struct {
	Variant string
	N       int
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%d", k.Variant, k.N)
}

// Entry is one persisted plan.
type Entry struct {
	Variant string    `cbor:"variant"`
	N       int       `cbor:"n"`
	Howmany int       `cbor:"howmany"`
	Cos     []float64 `cbor:"cos"`
	Sin     []float64 `cbor:"sin"`
}

// Key returns the entry's key.
func (e Entry) Key() Key {
	return Key{Variant: e.Variant, N: e.N}
}

// Store loads and saves plan entries.
type Store interface {
	// Load returns every stored entry. An empty store yields no entries and
	// no error.
	Load(ctx context.Context) ([]Entry, error)
	// Save inserts or replaces entries.
	Save(ctx context.Context, entries []Entry) error
	Close() error
}

func encode(e Entry) ([]byte, error) {
	b, err := cbor.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode plan %s: %w", e.Key(), err)
	}
	return b, nil
}

func decode(key Key, b []byte) (Entry, error) {
	var e Entry
	if err := cbor.Unmarshal(b, &e); err != nil {
		return Entry{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	if e.Key() != key || len(e.Cos) != e.N || len(e.Sin) != e.N {
		return Entry{}, fmt.Errorf("%w: %s: payload does not match key", ErrCorrupt, key)
	}
	return e, nil
}
