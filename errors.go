package lp

import "errors"

var (
	// ErrKeyNotFound is returned by lookups for a key the table does not hold.
	ErrKeyNotFound = errors.New("lp: key not found")
	// ErrTableFull is returned when an insert finds every slot occupied.
	// Tables grow before reaching half capacity, so this only surfaces
	// if growth itself could not make room.
	ErrTableFull = errors.New("lp: table is full")
	// ErrInvalidArgument reports a constructor argument out of range.
	ErrInvalidArgument = errors.New("lp: invalid argument")
	// ErrNoPrimeFound is returned by PrimeSequence.Next when the search
	// range holds no prime.
	ErrNoPrimeFound = errors.New("lp: no prime found")
)
