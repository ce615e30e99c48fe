package topology

import (
	"fmt"
	"math/bits"

	"ttxload/ttx"
)

// HarvestState carries the device-reported fields needed to compute
// core availability. Row-harvesting architectures use RowMask;
// Blackhole uses NOCTranslation and EnabledColumns.
type HarvestState struct {
	// RowMask is the raw harvesting bitmask. Bit 0 is reserved; bit n
	// (n >= 1) disables physical row n.
	RowMask uint32

	// NOCTranslation reports whether NOC coordinate translation is
	// enabled (Blackhole only).
	NOCTranslation bool

	// EnabledColumns is the enabled tensix column bitmask
	// (Blackhole only).
	EnabledColumns uint32
}

// TensixLocations computes the usable tensix cores for an architecture
// and harvesting state.
func TensixLocations(arch Arch, hs HarvestState) (ttx.CoreSet, error) {
	switch arch {
	case Grayskull, Wormhole:
		return rowHarvestLocations(tablesFor(arch), hs.RowMask), nil
	case Blackhole:
		return blackholeLocations(hs.NOCTranslation, hs.EnabledColumns), nil
	default:
		return nil, fmt.Errorf("unsupported architecture %v", arch)
	}
}

// rowHarvestLocations excludes the NOC-0 rows named by the harvesting
// mask and returns the cross product of all tensix columns with the
// remaining tensix rows.
func rowHarvestLocations(t *archTables, mask uint32) ttx.CoreSet {
	// The lowest bit of the raw mask is reserved, so shift it onto the
	// physical row numbering before extracting set bits.
	shifted := uint64(mask) << 1

	disabled := make(map[int]bool)
	for physRow := 0; physRow < len(t.physRowToNOC0); physRow++ {
		if shifted&(1<<uint(physRow)) != 0 {
			disabled[t.physRowToNOC0[physRow]] = true
		}
	}

	set := ttx.CoreSet{}
	for _, y := range t.tensixRows {
		if disabled[y] {
			continue
		}
		for _, x := range t.tensixCols {
			set.Add(ttx.CoreId{X: x, Y: y})
		}
	}
	return set
}

// blackholeLocations filters the full tensix grid by the enabled
// column bitmask. With translation enabled, NOC 0 looks the same as
// without translation except that harvested columns are moved to the
// far edge of the grid, so the first popcount(enabled) columns of each
// grid half are kept. With translation disabled, the bitmask indexes
// physical columns directly.
func blackholeLocations(translated bool, enabledCols uint32) ttx.CoreSet {
	set := ttx.CoreSet{}

	if translated {
		n := bits.OnesCount32(enabledCols)
		for _, core := range blackholeTensixLocations() {
			if (core.X <= 7 && core.X < n) || (core.X >= 10 && core.X-2 < n) {
				set.Add(core)
			}
		}
		return set
	}

	enabled := make(map[int]bool)
	for i := 0; i < blackholeNumTensixX; i++ {
		if enabledCols&(1<<uint(i)) != 0 {
			enabled[blackholeTensixCols[i]] = true
		}
	}
	for _, core := range blackholeTensixLocations() {
		if enabled[core.X] {
			set.Add(core)
		}
	}
	return set
}

// PhysToNOC translates a physical coordinate to its NOC-0 or NOC-1
// coordinate. Blackhole exposes no physical coordinate tables; use
// NOCFlip to move between its NOC-0 and NOC-1 systems.
func PhysToNOC(arch Arch, phys ttx.CoreId, noc int) (ttx.CoreId, error) {
	t := tablesFor(arch)
	if t == nil {
		return ttx.CoreId{}, fmt.Errorf("no physical coordinate tables for %v", arch)
	}
	if phys.X < 0 || phys.X >= len(t.physColToNOC0) || phys.Y < 0 || phys.Y >= len(t.physRowToNOC0) {
		return ttx.CoreId{}, fmt.Errorf("physical coordinate %v outside the %v grid", phys, arch)
	}

	noc0 := ttx.CoreId{X: t.physColToNOC0[phys.X], Y: t.physRowToNOC0[phys.Y]}
	switch noc {
	case 0:
		return noc0, nil
	case 1:
		return NOCFlip(arch, noc0), nil
	default:
		return ttx.CoreId{}, fmt.Errorf("unknown NOC id %d", noc)
	}
}

// NOCFlip converts a coordinate between the NOC-0 and NOC-1 systems,
// which mirror each other across the grid.
func NOCFlip(arch Arch, c ttx.CoreId) ttx.CoreId {
	gx, gy := gridSize(arch)
	return ttx.CoreId{X: gx - c.X - 1, Y: gy - c.Y - 1}
}
