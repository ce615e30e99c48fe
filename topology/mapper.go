package topology

import (
	"fmt"
	"sync"

	"ttxload/ttx"
)

// Source provides the privileged device queries needed to compute
// topology. Implementations return an error when the underlying
// telemetry field is unavailable; topology cannot be determined
// without it, so such errors are fatal for the caller.
type Source interface {
	// HarvestingBits returns the raw row harvesting bitmask
	// (Grayskull, Wormhole).
	HarvestingBits() (uint32, error)

	// NOCTranslationEnabled reports the NOC translation mode
	// (Blackhole).
	NOCTranslationEnabled() (bool, error)

	// EnabledTensixColumns returns the enabled column bitmask
	// (Blackhole).
	EnabledTensixColumns() (uint32, error)
}

// Mapper computes a chip's tensix locations and caches them for the
// duration of a chip session.
//
// Mapper is safe for concurrent use.
type Mapper struct {
	arch Arch
	src  Source

	mu     sync.Mutex
	cached ttx.CoreSet
}

// NewMapper returns a mapper for one chip session.
func NewMapper(arch Arch, src Source) *Mapper {
	return &Mapper{arch: arch, src: src}
}

// Arch returns the mapper's architecture.
func (m *Mapper) Arch() Arch {
	return m.arch
}

// TensixLocations returns the usable tensix cores, computing them on
// first use and serving a copy of the cached set afterwards.
func (m *Mapper) TensixLocations() (ttx.CoreSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached == nil {
		hs, err := m.harvestState()
		if err != nil {
			return nil, err
		}
		locations, err := TensixLocations(m.arch, hs)
		if err != nil {
			return nil, err
		}
		m.cached = locations
	}

	return m.cached.Clone(), nil
}

// Invalidate drops the cached locations. Call it whenever the chip is
// reinitialized, since harvesting state may be re-read differently.
func (m *Mapper) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cached = nil
}

func (m *Mapper) harvestState() (HarvestState, error) {
	var hs HarvestState

	switch m.arch {
	case Blackhole:
		translated, err := m.src.NOCTranslationEnabled()
		if err != nil {
			return hs, fmt.Errorf("read noc translation state: %w", err)
		}
		cols, err := m.src.EnabledTensixColumns()
		if err != nil {
			return hs, fmt.Errorf("read enabled tensix columns: %w", err)
		}
		hs.NOCTranslation = translated
		hs.EnabledColumns = cols
	default:
		mask, err := m.src.HarvestingBits()
		if err != nil {
			return hs, fmt.Errorf("read harvesting bits: %w", err)
		}
		hs.RowMask = mask
	}

	return hs, nil
}
