// Package topology computes core availability for the supported chip
// architectures.
//
// A chip's usable tensix cores depend on its manufacturing harvesting
// state: defective rows or columns are fused off and must be excluded
// from loads. Row-harvesting architectures (Grayskull, Wormhole) report
// a row bitmask whose set bits name disabled physical rows; these are
// translated to NOC-0 rows through fixed per-architecture tables.
// Blackhole harvests columns and additionally supports a NOC coordinate
// translation mode that logically shifts harvested columns to the far
// edge of the grid.
//
// TensixLocations is the pure computation. Mapper wraps it with the
// privileged device queries and caches the result for a chip session:
//
//	m := topology.NewMapper(topology.Wormhole, src)
//	cores, err := m.TensixLocations()
//	...
//	m.Invalidate() // after the chip is reinitialized
package topology
