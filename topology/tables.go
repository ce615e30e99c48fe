package topology

import "ttxload/ttx"

// archTables holds the fixed per-architecture grid and coordinate
// translation constants for the row-harvesting architectures.
type archTables struct {
	gridX, gridY int

	// NOC-0 rows and columns that hold tensix cores
	tensixRows []int
	tensixCols []int

	// physical index to NOC-0 coordinate
	physRowToNOC0 []int
	physColToNOC0 []int
}

var wormholeTables = archTables{
	gridX:      10,
	gridY:      12,
	tensixRows: []int{1, 2, 3, 4, 5, 7, 8, 9, 10, 11},
	tensixCols: []int{1, 2, 3, 4, 6, 7, 8, 9},

	physRowToNOC0: []int{0, 11, 1, 10, 2, 9, 3, 8, 4, 7, 5, 6},
	physColToNOC0: []int{0, 9, 1, 8, 2, 7, 3, 6, 4, 5},
}

// Grayskull interleaves rows in the opposite direction from Wormhole:
// physical row 0 sits at the bottom edge of the NOC-0 grid.
var grayskullTables = archTables{
	gridX:      13,
	gridY:      12,
	tensixRows: []int{1, 2, 3, 4, 5, 7, 8, 9, 10, 11},
	tensixCols: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},

	physRowToNOC0: []int{11, 0, 10, 1, 9, 2, 8, 3, 7, 4, 6, 5},
	physColToNOC0: []int{12, 0, 11, 1, 10, 2, 9, 3, 8, 4, 7, 5, 6},
}

// Blackhole grid and tensix layout. The tensix grid is split around
// two non-tensix column bands; columns are addressed physically
// through blackholeTensixCols when translation is disabled.
const (
	blackholeGridX = 17
	blackholeGridY = 12

	blackholeNumTensixX = 14
)

var blackholeTensixCols = []int{1, 2, 3, 4, 5, 6, 7, 10, 11, 12, 13, 14, 15, 16}

// blackholeTensixLocations returns the full tensix grid before
// harvesting: rows 2-11, columns 1-7 and 10-16.
func blackholeTensixLocations() []ttx.CoreId {
	out := make([]ttx.CoreId, 0, blackholeNumTensixX*10)
	for y := 2; y < blackholeGridY; y++ {
		for x := 1; x < 8; x++ {
			out = append(out, ttx.CoreId{X: x, Y: y})
		}
		for x := 10; x < blackholeGridX; x++ {
			out = append(out, ttx.CoreId{X: x, Y: y})
		}
	}
	return out
}

func tablesFor(arch Arch) *archTables {
	switch arch {
	case Grayskull:
		return &grayskullTables
	case Wormhole:
		return &wormholeTables
	default:
		return nil
	}
}

func gridSize(arch Arch) (x, y int) {
	switch arch {
	case Blackhole:
		return blackholeGridX, blackholeGridY
	default:
		t := tablesFor(arch)
		return t.gridX, t.gridY
	}
}
