package loader

import (
	"bytes"
	"context"
	"fmt"

	"ttxload/ttx"
)

// Check is one post-run memory assertion: the bytes expected at a
// device address.
type Check struct {
	Address uint64
	Data    []byte
}

// CheckRef names a completion check by core coordinates and archive
// entry, for callers that supply checks directly instead of through
// the test descriptor.
type CheckRef struct {
	X, Y int
	File string
}

// CompletionChecks holds per-core memory assertions used to confirm a
// workload ran to completion. Instances are immutable after
// construction; the Remap* and Filter transforms return new instances.
type CompletionChecks struct {
	checks map[ttx.CoreId][]Check
}

// CompletionChecksFromArchive builds checks from the archive's test
// descriptor: each completion.filematches entry binds a core to a
// single-block hex memory file of expected contents.
func CompletionChecksFromArchive(ar *ttx.Archive) (*CompletionChecks, error) {
	def, err := ar.TestDef()
	if err != nil {
		return nil, err
	}

	cc := &CompletionChecks{checks: make(map[ttx.CoreId][]Check)}
	for _, fm := range def.Completion.FileMatches {
		core := ttx.CoreId{X: fm.Node.X, Y: fm.Node.Y}
		check, err := readMemFile(ar, fm.File)
		if err != nil {
			return nil, err
		}
		cc.checks[core] = append(cc.checks[core], check)
	}
	return cc, nil
}

// PreloadedCompletionChecks builds checks from caller-supplied
// (x, y, file) references into the archive.
func PreloadedCompletionChecks(ar *ttx.Archive, refs []CheckRef) (*CompletionChecks, error) {
	cc := &CompletionChecks{checks: make(map[ttx.CoreId][]Check)}
	for _, ref := range refs {
		core := ttx.CoreId{X: ref.X, Y: ref.Y}
		check, err := readMemFile(ar, ref.File)
		if err != nil {
			return nil, err
		}
		cc.checks[core] = append(cc.checks[core], check)
	}
	return cc, nil
}

func readMemFile(ar *ttx.Archive, name string) (Check, error) {
	rc, err := ar.Open(name)
	if err != nil {
		return Check{}, err
	}
	defer func() { _ = rc.Close() }()

	chunk, err := ttx.ReadMemBlock(rc)
	if err != nil {
		return Check{}, fmt.Errorf("read %s: %w", name, err)
	}
	return Check{Address: chunk.Address, Data: chunk.Data}, nil
}

// Empty reports whether no checks are held.
func (c *CompletionChecks) Empty() bool {
	return len(c.checks) == 0
}

// RemapForBroadcast merges the checks of all cores into one combined
// list and assigns it to every core in the given set. Used after a
// broadcast load, where every core ran the same image.
func (c *CompletionChecks) RemapForBroadcast(cores ttx.CoreSet) *CompletionChecks {
	var all []Check
	for _, core := range c.sortedCores() {
		all = append(all, c.checks[core]...)
	}

	out := &CompletionChecks{checks: make(map[ttx.CoreId][]Check, len(cores))}
	for core := range cores {
		out.checks[core] = append([]Check(nil), all...)
	}
	return out
}

// RemapToPhysical applies a logical-to-physical core mapping,
// duplicating each logical core's checks onto every physical core it
// maps to. Logical cores without checks are skipped.
func (c *CompletionChecks) RemapToPhysical(mapping ttx.CoreMapping) *CompletionChecks {
	out := &CompletionChecks{checks: make(map[ttx.CoreId][]Check)}
	for logical, physicals := range mapping {
		checks, ok := c.checks[logical]
		if !ok {
			continue
		}
		for _, physical := range physicals {
			out.checks[physical] = append([]Check(nil), checks...)
		}
	}
	return out
}

// Filter restricts the checks to cores present in the loaded set.
func (c *CompletionChecks) Filter(loaded ttx.CoreSet) *CompletionChecks {
	out := &CompletionChecks{checks: make(map[ttx.CoreId][]Check)}
	for core, checks := range c.checks {
		if loaded.Contains(core) {
			out.checks[core] = append([]Check(nil), checks...)
		}
	}
	return out
}

// Evaluate reads every asserted address range from the device and
// compares it against the expected bytes. It returns true only if
// every assertion across every core matches exactly; the first
// mismatch fails the whole check.
func (c *CompletionChecks) Evaluate(ctx context.Context, device Device) (bool, error) {
	for _, core := range c.sortedCores() {
		if err := ctx.Err(); err != nil {
			return false, fmt.Errorf("cancelled: %w", err)
		}
		for _, check := range c.checks[core] {
			data, err := readAligned(device, core, check.Address, len(check.Data))
			if err != nil {
				return false, err
			}
			if !bytes.Equal(data, check.Data) {
				return false, nil
			}
		}
	}
	return true, nil
}

// readAligned reads a 16-byte-aligned window covering the requested
// range and slices out the exact bytes. NOC reads require aligned
// addresses and lengths.
func readAligned(device Device, core ttx.CoreId, address uint64, length int) ([]byte, error) {
	offset := int(address % 16)
	readAddress := address - uint64(offset)

	readLength := length + offset
	if rem := readLength % 16; rem != 0 {
		readLength += 16 - rem
	}

	buf, err := device.NocRead(core, readAddress, readLength)
	if err != nil {
		return nil, &TransportError{Op: OpRead, Core: core, Address: readAddress, Err: err}
	}
	if len(buf) < offset+length {
		return nil, fmt.Errorf("noc read on core %v returned %d bytes, want %d", core, len(buf), readLength)
	}

	return buf[offset : offset+length], nil
}

func (c *CompletionChecks) sortedCores() []ttx.CoreId {
	set := make(ttx.CoreSet, len(c.checks))
	for core := range c.checks {
		set.Add(core)
	}
	return set.Sorted()
}
