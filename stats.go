package lp

import (
	"fmt"
	"strings"
)

// Stats holds the cumulative probing counters of a Table.
// Counters are never reset; a rehash adds the counters of the rebuild to
// the existing ones.
type Stats struct {
	// Conflicts is the number of probe operations (inserts and lookups)
	// that met at least one slot holding a different key.
	Conflicts int `json:"conflicts"`
	// ProbeTotal is the total number of slots stepped over by linear
	// probing across all operations.
	ProbeTotal int `json:"probe_total"`
	// ProbeMax is the longest probe chain seen by a single operation.
	ProbeMax int `json:"probe_max"`
	// Rehashes is the number of times the table grew.
	Rehashes int `json:"rehashes"`
}

// probeStats is the accumulator a rebuild hands back to its table.
type probeStats struct {
	conflicts  int
	probeTotal int
	probeMax   int
}

// fold adds the counters of o to s, keeping the larger probe chain.
func (s probeStats) fold(o probeStats) probeStats {
	return probeStats{
		conflicts:  s.conflicts + o.conflicts,
		probeTotal: s.probeTotal + o.probeTotal,
		probeMax:   max(s.probeMax, o.probeMax),
	}
}

// Tuple returns the counters in the order
// (conflicts, probe total, probe max, rehashes).
func (s Stats) Tuple() (conflicts, probeTotal, probeMax, rehashes int) {
	return s.Conflicts, s.ProbeTotal, s.ProbeMax, s.Rehashes
}

// ToString returns a multi-line representation of the stats.
func (s Stats) ToString() string {
	var sb strings.Builder
	sb.WriteString("Stats{\n")
	sb.WriteString(fmt.Sprintf("Conflicts:  %d\n", s.Conflicts))
	sb.WriteString(fmt.Sprintf("ProbeTotal: %d\n", s.ProbeTotal))
	sb.WriteString(fmt.Sprintf("ProbeMax:   %d\n", s.ProbeMax))
	sb.WriteString(fmt.Sprintf("Rehashes:   %d\n", s.Rehashes))
	sb.WriteString("}\n")
	return sb.String()
}

// String implements fmt.Stringer.
func (s Stats) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", s.Conflicts, s.ProbeTotal, s.ProbeMax, s.Rehashes)
}
