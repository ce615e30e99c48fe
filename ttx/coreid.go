package ttx

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// CoreId identifies a core by its NOC coordinates.
// The textual form "x-y" is used in archive entry names.
type CoreId struct {
	X int
	Y int
}

var coreIdPattern = regexp.MustCompile(`^(\d+)-(\d+)$`)

// String returns the "x-y" textual form.
func (c CoreId) String() string {
	return fmt.Sprintf("%d-%d", c.X, c.Y)
}

// ParseCoreId parses the "x-y" textual form.
func ParseCoreId(s string) (CoreId, error) {
	m := coreIdPattern.FindStringSubmatch(s)
	if m == nil {
		return CoreId{}, fmt.Errorf("could not parse core id %q", s)
	}
	x, _ := strconv.Atoi(m[1])
	y, _ := strconv.Atoi(m[2])
	return CoreId{X: x, Y: y}, nil
}

// less orders cores by X, then Y.
func (c CoreId) less(other CoreId) bool {
	if c.X != other.X {
		return c.X < other.X
	}
	return c.Y < other.Y
}

// CoreSet is a set of core coordinates.
type CoreSet map[CoreId]struct{}

// NewCoreSet builds a set from the given cores.
func NewCoreSet(cores ...CoreId) CoreSet {
	s := make(CoreSet, len(cores))
	for _, c := range cores {
		s.Add(c)
	}
	return s
}

// Add inserts a core into the set.
func (s CoreSet) Add(c CoreId) {
	s[c] = struct{}{}
}

// Contains reports whether the core is a member.
func (s CoreSet) Contains(c CoreId) bool {
	_, ok := s[c]
	return ok
}

// Clone returns an independent copy of the set.
func (s CoreSet) Clone() CoreSet {
	out := make(CoreSet, len(s))
	for c := range s {
		out[c] = struct{}{}
	}
	return out
}

// Equal reports whether both sets hold exactly the same cores.
func (s CoreSet) Equal(other CoreSet) bool {
	if len(s) != len(other) {
		return false
	}
	for c := range s {
		if !other.Contains(c) {
			return false
		}
	}
	return true
}

// Sorted returns the members ordered by X, then Y. Used wherever
// deterministic iteration or stable error details are required.
func (s CoreSet) Sorted() []CoreId {
	out := make([]CoreId, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].less(out[j]) })
	return out
}

// CoreMapping maps a logical source core to the physical cores that
// receive its image (fan-out).
type CoreMapping map[CoreId][]CoreId

// Targets returns the set of all physical cores named by the mapping.
func (m CoreMapping) Targets() CoreSet {
	out := CoreSet{}
	for _, targets := range m {
		for _, c := range targets {
			out.Add(c)
		}
	}
	return out
}

// IsBroadcast reports whether the mapping describes a broadcast load:
// exactly one logical core, 0-0, fanned out to every tensix location.
func (m CoreMapping) IsBroadcast(tensix CoreSet) bool {
	if len(m) != 1 {
		return false
	}
	targets, ok := m[CoreId{X: 0, Y: 0}]
	if !ok {
		return false
	}
	return NewCoreSet(targets...).Equal(tensix)
}
