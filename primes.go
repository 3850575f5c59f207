package lp

import "fmt"

// PrimeSequence yields successively larger primes below an expanding
// ceiling. Each call to Next returns the largest prime in
// [previous, ceiling), where previous is the last prime returned (2 before
// the first call), and then moves the ceiling to prime*factor.
//
// Table uses a PrimeSequence to pick its capacities. The search is plain
// trial division, which is fine because it only runs when a table is
// created or grows.
//
// A PrimeSequence is not safe for concurrent use.
type PrimeSequence struct {
	largest int
	ceiling int
	factor  int
}

// NewPrimeSequence creates a sequence whose first call to Next searches
// [2, ceiling). ceiling must be at least 2 and factor at least 1.
func NewPrimeSequence(ceiling, factor int) (*PrimeSequence, error) {
	if ceiling < 2 {
		return nil, fmt.Errorf("%w: prime ceiling %d, want >= 2", ErrInvalidArgument, ceiling)
	}
	if factor < 1 {
		return nil, fmt.Errorf("%w: prime growth factor %d, want >= 1", ErrInvalidArgument, factor)
	}
	return &PrimeSequence{largest: 2, ceiling: ceiling, factor: factor}, nil
}

// Next returns the largest prime in [previous, ceiling) and sets the
// ceiling for the following call to that prime times the growth factor.
//
// If the range is empty or holds no prime, Next returns ErrNoPrimeFound
// and the sequence is left unchanged.
func (s *PrimeSequence) Next() (int, error) {
	// The largest prime in the range is the last one an ascending sweep
	// would find, so search downwards and stop at the first hit.
	for n := s.ceiling - 1; n >= s.largest; n-- {
		if isPrime(n) {
			s.largest = n
			s.ceiling = n * s.factor
			return n, nil
		}
	}
	return 0, fmt.Errorf("%w in [%d, %d)", ErrNoPrimeFound, s.largest, s.ceiling)
}

// Largest returns the last prime returned by Next, or 2 before the first call.
func (s *PrimeSequence) Largest() int {
	return s.largest
}

// Ceiling returns the exclusive upper bound of the next search.
func (s *PrimeSequence) Ceiling() int {
	return s.ceiling
}

// isPrime reports whether n is prime by trial division.
func isPrime(n int) bool {
	if n < 2 {
		return false
	}
	if n%2 == 0 {
		return n == 2
	}
	for d := 3; d <= n/d; d += 2 {
		if n%d == 0 {
			return false
		}
	}
	return true
}
