package topology

import (
	"fmt"
	"strings"
)

// Arch identifies a supported chip architecture.
type Arch int

const (
	// Grayskull uses row-based harvesting with reversed physical row order
	Grayskull Arch = iota

	// Wormhole uses row-based harvesting with fixed NOC translation tables
	Wormhole

	// Blackhole uses column-based harvesting and optional NOC translation
	Blackhole
)

func (a Arch) String() string {
	switch a {
	case Grayskull:
		return "Grayskull"
	case Wormhole:
		return "Wormhole"
	case Blackhole:
		return "Blackhole"
	default:
		return fmt.Sprintf("Arch(%d)", int(a))
	}
}

// ParseArch parses an architecture identifier, case-insensitively.
func ParseArch(s string) (Arch, error) {
	switch strings.ToLower(s) {
	case "grayskull":
		return Grayskull, nil
	case "wormhole":
		return Wormhole, nil
	case "blackhole":
		return Blackhole, nil
	default:
		return 0, fmt.Errorf("unknown architecture %q", s)
	}
}
