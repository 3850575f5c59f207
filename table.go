package lp

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"strings"
)

const (
	// sizeMultiplier scales the expected number of keys into the initial
	// prime search ceiling, so a new table starts at about a third full.
	sizeMultiplier = 3
	// growthFactor is the ceiling multiplier of the table's PrimeSequence.
	growthFactor = 3
	// hashBase is the radix of the polynomial string hash.
	hashBase = 29
	// defaultExpectedSize sizes a zero Table on its first Set.
	defaultExpectedSize = 8
	// minOverrideCapacity is the smallest capacity NewWithCapacity accepts.
	// A sequence seeded at 2 searches the empty range [2, 2) and could
	// never grow the table.
	minOverrideCapacity = 3
)

// Table is a string-keyed hash table using open addressing with linear
// probing. Capacities are drawn from a PrimeSequence: a table created with
// New starts at the largest prime below three times the expected size, and
// every growth moves to the next prime of the sequence.
//
// The table grows before an insert would take it past half full, so the
// load factor never exceeds 0.5 once Set returns. Entries are never removed
// individually; growth rebuilds the whole table into a fresh slot slice.
//
// Slot positions follow from a polynomial hash over the key's code points,
// reduced modulo the capacity after every term. Keys hashed with the same
// capacity always land on the same home slot, so the layout of a table is
// reproducible from its insertion order.
//
// The zero Table is empty and ready for use; it sizes itself on the first
// Set as if created with New(8). A Table must not be copied after first
// use and is not safe for concurrent use.
type Table[V any] struct {
	_        noCopy
	tab      layout[V]
	primes   *PrimeSequence
	rehashes int
}

// Config defines configurable Table options.
type Config struct {
	// Capacity, when positive, is used as the initial capacity instead of
	// a prime derived from the expected size.
	Capacity int
}

// WithCapacity configures a new Table with a fixed initial capacity,
// bypassing the prime search. Later growth still follows the prime
// sequence seeded at that capacity.
func WithCapacity(capacity int) func(*Config) {
	return func(c *Config) {
		c.Capacity = capacity
	}
}

// New creates a Table sized for expectedSize keys.
//
// Parameters:
//   - expectedSize: number of keys the caller plans to store; must be >= 1.
//   - options: optional configuration (WithCapacity).
func New[V any](expectedSize int, options ...func(*Config)) (*Table[V], error) {
	if expectedSize < 1 {
		return nil, fmt.Errorf("%w: expected size %d, want >= 1", ErrInvalidArgument, expectedSize)
	}
	var cfg Config
	for _, opt := range options {
		opt(&cfg)
	}
	t := &Table[V]{}
	if cfg.Capacity > 0 {
		if err := t.initWithCapacity(cfg.Capacity); err != nil {
			return nil, err
		}
		return t, nil
	}
	if err := t.init(expectedSize); err != nil {
		return nil, err
	}
	return t, nil
}

// NewWithCapacity creates a Table with exactly capacity slots. The
// capacity is used as given, prime or not; it must be at least 3.
func NewWithCapacity[V any](capacity int) (*Table[V], error) {
	t := &Table[V]{}
	if err := t.initWithCapacity(capacity); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table[V]) init(expectedSize int) error {
	if expectedSize < 1 {
		return fmt.Errorf("%w: expected size %d, want >= 1", ErrInvalidArgument, expectedSize)
	}
	primes, err := NewPrimeSequence(expectedSize*sizeMultiplier, growthFactor)
	if err != nil {
		return err
	}
	capacity, err := primes.Next()
	if err != nil {
		return fmt.Errorf("size table for %d keys: %w", expectedSize, err)
	}
	t.primes = primes
	t.tab = newLayout[V](capacity)
	return nil
}

func (t *Table[V]) initWithCapacity(capacity int) error {
	if capacity < minOverrideCapacity {
		return fmt.Errorf("%w: capacity %d, want >= %d", ErrInvalidArgument, capacity, minOverrideCapacity)
	}
	primes, err := NewPrimeSequence(capacity, growthFactor)
	if err != nil {
		return err
	}
	t.primes = primes
	t.tab = newLayout[V](capacity)
	return nil
}

// Get returns the value stored for key, or an error wrapping
// ErrKeyNotFound.
func (t *Table[V]) Get(key string) (value V, err error) {
	if t.tab.capacity() == 0 {
		return value, keyNotFound(key)
	}
	pos, err := t.tab.probe(key, false)
	if err != nil {
		return value, err
	}
	return t.tab.slots[pos].value, nil
}

// Load returns the value stored for key and whether it was present.
func (t *Table[V]) Load(key string) (value V, ok bool) {
	value, err := t.Get(key)
	return value, err == nil
}

// Contains reports whether key is present.
func (t *Table[V]) Contains(key string) bool {
	_, err := t.Get(key)
	return err == nil
}

// Set stores value under key, overwriting any previous value.
//
// The table grows first when it is already more than half full, or when
// inserting a new key would take it past half full. Overwriting an
// existing key below that point never grows the table. Growth draws the
// next larger prime from the sequence and rehashes every entry into a
// fresh slot slice. Growth failures (ErrNoPrimeFound) are returned and
// leave the table contents unchanged.
func (t *Table[V]) Set(key string, value V) error {
	if t.primes == nil {
		if err := t.init(defaultExpectedSize); err != nil {
			return err
		}
	}
	if t.needsGrowth(key) {
		if err := t.rehash(); err != nil {
			return err
		}
	}
	pos, err := t.tab.probe(key, true)
	if err != nil {
		return err
	}
	t.tab.place(pos, key, value)
	return nil
}

// needsGrowth reports whether Set must rehash before storing key.
func (t *Table[V]) needsGrowth(key string) bool {
	capacity := t.tab.capacity()
	if 2*t.tab.count > capacity {
		return true
	}
	return 2*(t.tab.count+1) > capacity && !t.tab.has(key)
}

// rehash grows the table to the next prime of its sequence.
func (t *Table[V]) rehash() error {
	capacity, err := t.nextCapacity()
	if err != nil {
		return err
	}
	grown, acc, err := t.tab.rebuild(capacity)
	if err != nil {
		return fmt.Errorf("rehash into %d slots: %w", capacity, err)
	}
	grown.stats = t.tab.stats.fold(acc)
	t.tab = grown
	t.rehashes++
	return nil
}

// nextCapacity draws primes until one exceeds the current capacity.
// Capacities set through WithCapacity need not be prime, and the first
// prime below such a capacity would shrink the table.
func (t *Table[V]) nextCapacity() (int, error) {
	for {
		p, err := t.primes.Next()
		if err != nil {
			return 0, fmt.Errorf("grow table from %d slots: %w", t.tab.capacity(), err)
		}
		if p > t.tab.capacity() {
			return p, nil
		}
	}
}

// Keys returns all keys in slot order.
func (t *Table[V]) Keys() []string {
	keys := make([]string, 0, t.tab.count)
	t.Range(func(key string, _ V) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Values returns all values in slot order.
func (t *Table[V]) Values() []V {
	values := make([]V, 0, t.tab.count)
	t.Range(func(_ string, value V) bool {
		values = append(values, value)
		return true
	})
	return values
}

// Range calls yield for every entry in slot order until yield returns
// false. The table must not be modified from within yield.
func (t *Table[V]) Range(yield func(key string, value V) bool) {
	for i := range t.tab.slots {
		s := &t.tab.slots[i]
		if s.used && !yield(s.key, s.value) {
			return
		}
	}
}

// All is the iterator version of Range.
func (t *Table[V]) All() func(yield func(string, V) bool) {
	return t.Range
}

// Len returns the number of keys stored. This is an O(1) operation.
func (t *Table[V]) Len() int {
	return t.tab.count
}

// Cap returns the current number of slots.
func (t *Table[V]) Cap() int {
	return t.tab.capacity()
}

// IsEmpty reports whether the table holds no keys.
func (t *Table[V]) IsEmpty() bool {
	return t.tab.count == 0
}

// IsFull reports whether every slot is occupied.
func (t *Table[V]) IsFull() bool {
	return t.tab.capacity() > 0 && t.tab.count == t.tab.capacity()
}

// Stats returns the cumulative probing counters.
func (t *Table[V]) Stats() Stats {
	return Stats{
		Conflicts:  t.tab.stats.conflicts,
		ProbeTotal: t.tab.stats.probeTotal,
		ProbeMax:   t.tab.stats.probeMax,
		Rehashes:   t.rehashes,
	}
}

// ToMap collects all entries into a map[string]V.
func (t *Table[V]) ToMap() map[string]V {
	a := make(map[string]V, t.tab.count)
	t.Range(func(key string, value V) bool {
		a[key] = value
		return true
	})
	return a
}

// String implements fmt.Stringer. At most 1024 entries are printed.
func (t *Table[V]) String() string {
	const limit = 1024
	a := make(map[string]V, min(t.tab.count, limit))
	t.Range(func(key string, value V) bool {
		a[key] = value
		return len(a) < limit
	})
	return strings.Replace(fmt.Sprint(a), "map[", "Table[", 1)
}

var (
	jsonMarshal   func(v any) ([]byte, error)
	jsonUnmarshal func(data []byte, v any) error
)

// SetDefaultJSONMarshal sets the JSON serialization and deserialization
// functions used by Table. If not set, encoding/json is used.
func SetDefaultJSONMarshal(marshal func(v any) ([]byte, error), unmarshal func(data []byte, v any) error) {
	jsonMarshal, jsonUnmarshal = marshal, unmarshal
}

// MarshalJSON encodes the table as a JSON object.
func (t *Table[V]) MarshalJSON() ([]byte, error) {
	if jsonMarshal != nil {
		return jsonMarshal(t.ToMap())
	}
	return json.Marshal(t.ToMap())
}

// UnmarshalJSON decodes a JSON object and sets every pair. Existing
// entries are kept unless overwritten.
func (t *Table[V]) UnmarshalJSON(data []byte) error {
	var a map[string]V
	if jsonUnmarshal != nil {
		if err := jsonUnmarshal(data, &a); err != nil {
			return err
		}
	} else {
		if err := json.Unmarshal(data, &a); err != nil {
			return err
		}
	}
	if t.primes == nil && len(a) > 0 {
		if err := t.init(len(a)); err != nil {
			return err
		}
	}
	for k, v := range a {
		if err := t.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

type slot[V any] struct {
	key   string
	value V
	used  bool
}

// layout is one backing slot slice together with its occupancy and the
// probing counters collected while it was filled and searched.
type layout[V any] struct {
	slots []slot[V]
	count int
	stats probeStats
}

func newLayout[V any](capacity int) layout[V] {
	return layout[V]{slots: make([]slot[V], capacity)}
}

func (l *layout[V]) capacity() int {
	return len(l.slots)
}

// probe returns the slot holding key or, for an insert, the empty slot
// where key belongs.
func (l *layout[V]) probe(key string, insert bool) (int, error) {
	n := len(l.slots)
	pos := hashKey(key, n)
	if insert && l.count == n {
		return 0, fmt.Errorf("%w: inserting %q into %d slots", ErrTableFull, key, n)
	}

	steps := 0
	conflicted := false
	for range n {
		s := &l.slots[pos]
		if !s.used {
			if !insert {
				return 0, keyNotFound(key)
			}
			l.stats.probeMax = max(l.stats.probeMax, steps)
			return pos, nil
		}
		if s.key == key {
			l.stats.probeMax = max(l.stats.probeMax, steps)
			return pos, nil
		}
		if !conflicted {
			l.stats.conflicts++
			conflicted = true
		}
		pos++
		if pos == n {
			pos = 0
		}
		steps++
		l.stats.probeTotal++
	}
	return 0, keyNotFound(key)
}

// has reports whether key is stored, without touching the counters.
func (l *layout[V]) has(key string) bool {
	n := len(l.slots)
	if n == 0 {
		return false
	}
	pos := hashKey(key, n)
	for range n {
		s := &l.slots[pos]
		if !s.used {
			return false
		}
		if s.key == key {
			return true
		}
		pos++
		if pos == n {
			pos = 0
		}
	}
	return false
}

// place stores the pair at pos, which must come from probe.
func (l *layout[V]) place(pos int, key string, value V) {
	s := &l.slots[pos]
	if !s.used {
		l.count++
	}
	*s = slot[V]{key: key, value: value, used: true}
}

// rebuild reinserts every entry into a new layout of the given capacity.
// The new layout starts with zeroed counters; the counters collected while
// reinserting are returned separately so the caller can fold them into its
// running totals.
func (l *layout[V]) rebuild(capacity int) (layout[V], probeStats, error) {
	grown := newLayout[V](capacity)
	for i := range l.slots {
		s := &l.slots[i]
		if !s.used {
			continue
		}
		pos, err := grown.probe(s.key, true)
		if err != nil {
			return layout[V]{}, probeStats{}, err
		}
		grown.place(pos, s.key, s.value)
	}
	acc := grown.stats
	grown.stats = probeStats{}
	return grown, acc, nil
}

func keyNotFound(key string) error {
	return fmt.Errorf("%w: %q", ErrKeyNotFound, key)
}

// hashKey computes sum(code(key[i]) * 29^i) mod capacity over the code
// points of key, reducing after every term. Invalid UTF-8 bytes count as
// U+FFFD.
func hashKey(key string, capacity int) int {
	m := uint64(capacity)
	h := uint64(0)
	pow := 1 % m
	for _, r := range key {
		h += mulMod(uint64(r), pow, m)
		if h >= m {
			h -= m
		}
		pow = mulMod(pow, hashBase, m)
	}
	return int(h)
}

// mulMod returns a*b mod m without overflow.
func mulMod(a, b, m uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	return bits.Rem64(hi, lo, m)
}

// noCopy may be added to structs which must not be copied
// after the first use.
//
// See https://golang.org/issues/8005#issuecomment-190753527
// for details.
//
// Note that it must not be embedded, due to the Lock and Unlock methods.
type noCopy struct{}

// Lock is a no-op used by -copylocks checker from `go vet`.
func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
