package ttx

import (
	"archive/zip"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// TestDescriptorName is the archive entry holding the test descriptor.
const TestDescriptorName = "test.yaml"

// Archive is a TTX workload bundle: a zip container with per-core
// image entries plus a YAML test descriptor.
type Archive struct {
	entries map[string]*zip.File
	closer  io.Closer
	testDef *TestDef
}

// OpenArchive opens a TTX bundle from disk.
func OpenArchive(path string) (*Archive, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	ar := newArchive(&rc.Reader)
	ar.closer = rc
	return ar, nil
}

// NewArchive opens a TTX bundle from a seekable source, such as an
// in-memory buffer.
func NewArchive(r io.ReaderAt, size int64) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return newArchive(zr), nil
}

func newArchive(zr *zip.Reader) *Archive {
	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		entries[f.Name] = f
	}
	return &Archive{entries: entries}
}

// Close releases the underlying file when the archive was opened from
// disk. It is a no-op otherwise.
func (a *Archive) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

// Has reports whether the named entry exists.
func (a *Archive) Has(name string) bool {
	_, ok := a.entries[name]
	return ok
}

// Open returns a reader for the named entry.
func (a *Archive) Open(name string) (io.ReadCloser, error) {
	f, ok := a.entries[name]
	if !ok {
		return nil, fmt.Errorf("archive entry %q not found", name)
	}
	return f.Open()
}

// TestDef parses and caches the archive's test descriptor.
func (a *Archive) TestDef() (*TestDef, error) {
	if a.testDef != nil {
		return a.testDef, nil
	}

	rc, err := a.Open(TestDescriptorName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	var def TestDef
	if err := yaml.NewDecoder(rc).Decode(&def); err != nil {
		return nil, fmt.Errorf("parse %s: %w", TestDescriptorName, err)
	}

	a.testDef = &def
	return a.testDef, nil
}

// TestDef is the structured test descriptor embedded in an archive.
type TestDef struct {
	Completion CompletionDef `yaml:"completion"`
}

// CompletionDef lists the post-run memory assertions for a workload.
type CompletionDef struct {
	FileMatches []FileMatch `yaml:"filematches"`
}

// FileMatch binds a core to a memory file holding its expected
// post-run contents. The file is a single-block hex memory file.
type FileMatch struct {
	Node NodeRef `yaml:"node"`
	File string  `yaml:"file"`
}

// NodeRef names a core by its coordinates.
type NodeRef struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}
