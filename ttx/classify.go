package ttx

import (
	"regexp"
	"strconv"
)

// Entry roles and encodings recognized in archive entry names.
const (
	// RoleImage is the per-core base image
	RoleImage = "image"

	// RoleCkernels is the per-core compute kernel image
	RoleCkernels = "ckernels"
)

var entryPattern = regexp.MustCompile(`^(\d+)-(\d+)/(image|ckernels)\.(bin|hex)$`)

// Classification groups the archive's image entries by role and
// encoding, after discarding empty payloads and hex entries shadowed
// by a bin entry for the same core and role.
type Classification struct {
	ImageBin    CoreSet
	ImageHex    CoreSet
	CkernelsBin CoreSet
	CkernelsHex CoreSet
}

// Classify scans the archive's entries and classifies per-core images.
// Entries that do not match the "x-y/<role>.<ext>" pattern are
// ignored, as are empty payloads (they may exist for non-tensix
// cores). Hex entries shadowed by bin entries are dropped, per role
// independently.
func (a *Archive) Classify() *Classification {
	c := &Classification{
		ImageBin:    CoreSet{},
		ImageHex:    CoreSet{},
		CkernelsBin: CoreSet{},
		CkernelsHex: CoreSet{},
	}

	for name, f := range a.entries {
		m := entryPattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}

		x, _ := strconv.Atoi(m[1])
		y, _ := strconv.Atoi(m[2])
		core := CoreId{X: x, Y: y}
		role, ext := m[3], m[4]

		size := f.UncompressedSize64
		if ext == "bin" && size <= BinHeaderSize {
			continue
		}
		if ext == "hex" && size == 0 {
			continue
		}

		switch {
		case role == RoleImage && ext == "bin":
			c.ImageBin.Add(core)
		case role == RoleImage && ext == "hex":
			c.ImageHex.Add(core)
		case role == RoleCkernels && ext == "bin":
			c.CkernelsBin.Add(core)
		case role == RoleCkernels && ext == "hex":
			c.CkernelsHex.Add(core)
		}
	}

	// Hex entries existed for back-compat with old loaders; a bin
	// entry for the same core and role takes precedence.
	for core := range c.ImageBin {
		delete(c.ImageHex, core)
	}
	for core := range c.CkernelsBin {
		delete(c.CkernelsHex, core)
	}

	return c
}

// ImageCores returns every core with a surviving image entry, in
// either encoding.
func (c *Classification) ImageCores() CoreSet {
	out := c.ImageBin.Clone()
	for core := range c.ImageHex {
		out.Add(core)
	}
	return out
}

// CkernelCores returns every core with a surviving ckernels entry, in
// either encoding.
func (c *Classification) CkernelCores() CoreSet {
	out := c.CkernelsBin.Clone()
	for core := range c.CkernelsHex {
		out.Add(core)
	}
	return out
}

// Validate enforces the archive consistency rules against the
// caller-supplied core mapping and the chip's current tensix
// locations. All rules are checked before any device write is issued:
//
//  1. at least one image entry must exist;
//  2. every ckernels core must also be an image core;
//  3. every image core must be a key of the core mapping;
//  4. every physical mapping target must be a tensix location.
func (c *Classification) Validate(mapping CoreMapping, tensix CoreSet) error {
	images := c.ImageCores()
	if len(images) == 0 {
		return &EmptyArchiveError{}
	}

	var orphans []CoreId
	for _, core := range c.CkernelCores().Sorted() {
		if !images.Contains(core) {
			orphans = append(orphans, core)
		}
	}
	if len(orphans) > 0 {
		return &MappingError{Reason: "archive has cores with ckernels but no image", Cores: orphans}
	}

	var unmapped []CoreId
	for _, core := range images.Sorted() {
		if _, ok := mapping[core]; !ok {
			unmapped = append(unmapped, core)
		}
	}
	if len(unmapped) > 0 {
		return &MappingError{Reason: "archive has images for cores with no physical mapping", Cores: unmapped}
	}

	var unknown []CoreId
	for _, core := range mapping.Targets().Sorted() {
		if !tensix.Contains(core) {
			unknown = append(unknown, core)
		}
	}
	if len(unknown) > 0 {
		return &MappingError{Reason: "core mapping targets cores that do not exist", Cores: unknown}
	}

	return nil
}
