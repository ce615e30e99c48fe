package loader

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ttxload/ttx"
)

const mockMemSize = 4096

type nocOp struct {
	core    ttx.CoreId
	address uint64
	length  int
}

// MockDevice simulates a chip with per-core memory for testing.
type MockDevice struct {
	tensix ttx.CoreSet
	mem    map[ttx.CoreId][]byte

	writes     []nocOp
	reads      []nocOp
	broadcasts []nocOp

	writeErr     error
	readErr      error
	broadcastErr error

	// corrupt flips the first byte of every write to these cores,
	// simulating a core that does not retain data.
	corrupt ttx.CoreSet
}

func NewMockDevice(tensix ttx.CoreSet) *MockDevice {
	return &MockDevice{
		tensix:  tensix,
		mem:     make(map[ttx.CoreId][]byte),
		corrupt: ttx.CoreSet{},
	}
}

func (d *MockDevice) core(c ttx.CoreId) []byte {
	if d.mem[c] == nil {
		d.mem[c] = make([]byte, mockMemSize)
	}
	return d.mem[c]
}

func (d *MockDevice) NocWrite(core ttx.CoreId, addr uint64, data []byte) error {
	if d.writeErr != nil {
		return d.writeErr
	}
	d.writes = append(d.writes, nocOp{core: core, address: addr, length: len(data)})
	copy(d.core(core)[addr:], data)
	if d.corrupt.Contains(core) && len(data) > 0 {
		d.core(core)[addr] ^= 0xFF
	}
	return nil
}

func (d *MockDevice) NocRead(core ttx.CoreId, addr uint64, length int) ([]byte, error) {
	if d.readErr != nil {
		return nil, d.readErr
	}
	d.reads = append(d.reads, nocOp{core: core, address: addr, length: length})
	out := make([]byte, length)
	copy(out, d.core(core)[addr:])
	return out, nil
}

func (d *MockDevice) NocBroadcast(addr uint64, data []byte) error {
	if d.broadcastErr != nil {
		return d.broadcastErr
	}
	d.broadcasts = append(d.broadcasts, nocOp{address: addr, length: len(data)})
	for core := range d.tensix {
		copy(d.core(core)[addr:], data)
	}
	return nil
}

func (d *MockDevice) TensixLocations() (ttx.CoreSet, error) {
	return d.tensix.Clone(), nil
}

// buildArchive assembles an in-memory TTX bundle.
func buildArchive(t *testing.T, entries map[string][]byte) *ttx.Archive {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	ar, err := ttx.NewArchive(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	return ar
}

func binImage(t *testing.T, chunks ...ttx.Chunk) []byte {
	t.Helper()

	var buf bytes.Buffer
	bw, err := ttx.NewBinWriter(&buf)
	require.NoError(t, err)
	for _, c := range chunks {
		require.NoError(t, bw.WriteChunk(c.Address, c.Data))
	}
	return buf.Bytes()
}

func smallTensix() ttx.CoreSet {
	return ttx.NewCoreSet(
		ttx.CoreId{X: 1, Y: 1},
		ttx.CoreId{X: 1, Y: 2},
		ttx.CoreId{X: 2, Y: 1},
		ttx.CoreId{X: 2, Y: 2},
	)
}

func TestLoadPerCore(t *testing.T) {
	ar := buildArchive(t, map[string][]byte{
		"0-0/image.bin":    binImage(t, ttx.Chunk{Address: 0x100, Data: []byte{1, 2, 3, 4}}),
		"0-0/ckernels.bin": binImage(t, ttx.Chunk{Address: 0x200, Data: []byte{5, 6}}),
		"1-0/image.hex":    []byte("@40\ndeadbeef\n"),
	})

	dev := NewMockDevice(smallTensix())
	mapping := ttx.CoreMapping{
		{X: 0, Y: 0}: {{X: 1, Y: 1}, {X: 2, Y: 2}},
		{X: 1, Y: 0}: {{X: 1, Y: 2}},
	}

	loaded, err := New(dev).Load(context.Background(), ar, mapping)
	require.NoError(t, err)

	assert.True(t, loaded.Equal(ttx.NewCoreSet(ttx.CoreId{X: 0, Y: 0}, ttx.CoreId{X: 1, Y: 0})))
	assert.Empty(t, dev.broadcasts)

	// Both targets of 0-0 carry the image and the ckernels.
	for _, core := range []ttx.CoreId{{X: 1, Y: 1}, {X: 2, Y: 2}} {
		assert.Equal(t, []byte{1, 2, 3, 4}, dev.core(core)[0x100:0x104])
		assert.Equal(t, []byte{5, 6}, dev.core(core)[0x200:0x202])
	}

	// 1-0's hex image lands at byte address 0x40*4.
	assert.Equal(t, []byte{0xEF, 0xBE, 0xAD, 0xDE}, dev.core(ttx.CoreId{X: 1, Y: 2})[0x100:0x104])

	// Verification read every written range back.
	assert.Len(t, dev.reads, len(dev.writes))
}

func TestLoadOrderImageBeforeCkernels(t *testing.T) {
	ar := buildArchive(t, map[string][]byte{
		"0-0/image.bin":    binImage(t, ttx.Chunk{Address: 0x100, Data: []byte{1}}),
		"0-0/ckernels.bin": binImage(t, ttx.Chunk{Address: 0x200, Data: []byte{2}}),
	})

	dev := NewMockDevice(smallTensix())
	mapping := ttx.CoreMapping{{X: 0, Y: 0}: {{X: 1, Y: 1}}}

	_, err := New(dev, WithVerify(false)).Load(context.Background(), ar, mapping)
	require.NoError(t, err)

	require.Len(t, dev.writes, 2)
	assert.Equal(t, uint64(0x100), dev.writes[0].address)
	assert.Equal(t, uint64(0x200), dev.writes[1].address)
}

func TestLoadBroadcast(t *testing.T) {
	tensix := smallTensix()
	ar := buildArchive(t, map[string][]byte{
		"0-0/image.bin": binImage(t,
			ttx.Chunk{Address: 0x100, Data: []byte{1, 2, 3, 4}},
			ttx.Chunk{Address: 0x300, Data: []byte{9}},
		),
	})

	dev := NewMockDevice(tensix)
	mapping := ttx.CoreMapping{{X: 0, Y: 0}: tensix.Sorted()}

	loaded, err := New(dev).Load(context.Background(), ar, mapping)
	require.NoError(t, err)

	// Broadcast loads report the full tensix set as loaded.
	assert.True(t, loaded.Equal(tensix))
	assert.Len(t, dev.broadcasts, 2)
	assert.Empty(t, dev.writes)

	// Broadcast verification fans out across every tensix core.
	assert.Len(t, dev.reads, 2*len(tensix))
	for core := range tensix {
		assert.Equal(t, []byte{1, 2, 3, 4}, dev.core(core)[0x100:0x104])
	}
}

func TestLoadBroadcastRequiresFullFanout(t *testing.T) {
	tensix := smallTensix()
	ar := buildArchive(t, map[string][]byte{
		"0-0/image.bin": binImage(t, ttx.Chunk{Address: 0x100, Data: []byte{1}}),
	})

	// One core short of the full set: a per-core load, not a broadcast.
	targets := tensix.Sorted()[:3]
	dev := NewMockDevice(tensix)
	mapping := ttx.CoreMapping{{X: 0, Y: 0}: targets}

	loaded, err := New(dev, WithVerify(false)).Load(context.Background(), ar, mapping)
	require.NoError(t, err)

	assert.True(t, loaded.Equal(ttx.NewCoreSet(ttx.CoreId{X: 0, Y: 0})))
	assert.Empty(t, dev.broadcasts)
	assert.Len(t, dev.writes, len(targets))
}

func TestLoadVerificationMismatch(t *testing.T) {
	ar := buildArchive(t, map[string][]byte{
		"0-0/image.bin": binImage(t, ttx.Chunk{Address: 0x100, Data: []byte{1, 2, 3, 4}}),
	})

	bad := ttx.CoreId{X: 2, Y: 2}
	dev := NewMockDevice(smallTensix())
	dev.corrupt.Add(bad)
	mapping := ttx.CoreMapping{{X: 0, Y: 0}: {{X: 1, Y: 1}, bad}}

	_, err := New(dev).Load(context.Background(), ar, mapping)
	require.Error(t, err)

	var verErr *VerificationError
	require.ErrorAs(t, err, &verErr)
	assert.Equal(t, bad, verErr.Core)
	assert.Equal(t, uint64(0x100), verErr.Address)
}

func TestLoadVerifyDisabled(t *testing.T) {
	ar := buildArchive(t, map[string][]byte{
		"0-0/image.bin": binImage(t, ttx.Chunk{Address: 0x100, Data: []byte{1, 2}}),
	})

	bad := ttx.CoreId{X: 1, Y: 1}
	dev := NewMockDevice(smallTensix())
	dev.corrupt.Add(bad)
	mapping := ttx.CoreMapping{{X: 0, Y: 0}: {bad}}

	_, err := New(dev, WithVerify(false)).Load(context.Background(), ar, mapping)
	require.NoError(t, err)
	assert.Empty(t, dev.reads)
}

func TestLoadValidatesBeforeWriting(t *testing.T) {
	ar := buildArchive(t, map[string][]byte{
		"0-0/image.bin":    binImage(t, ttx.Chunk{Address: 0x100, Data: []byte{1}}),
		"5-5/ckernels.bin": binImage(t, ttx.Chunk{Address: 0x100, Data: []byte{1}}),
	})

	dev := NewMockDevice(smallTensix())
	mapping := ttx.CoreMapping{{X: 0, Y: 0}: {{X: 1, Y: 1}}}

	_, err := New(dev).Load(context.Background(), ar, mapping)
	var mapErr *ttx.MappingError
	require.ErrorAs(t, err, &mapErr)
	assert.Contains(t, err.Error(), "5-5")

	// Nothing was written.
	assert.Empty(t, dev.writes)
	assert.Empty(t, dev.broadcasts)
}

func TestLoadEmptyArchive(t *testing.T) {
	ar := buildArchive(t, map[string][]byte{
		"0-0/image.bin": binImage(t), // header only: an absent image
	})

	dev := NewMockDevice(smallTensix())
	_, err := New(dev).Load(context.Background(), ar, ttx.CoreMapping{})

	var emptyErr *ttx.EmptyArchiveError
	require.ErrorAs(t, err, &emptyErr)
}

func TestLoadTransportErrorAttribution(t *testing.T) {
	ar := buildArchive(t, map[string][]byte{
		"0-0/image.bin": binImage(t, ttx.Chunk{Address: 0x100, Data: []byte{1}}),
	})

	devErr := errors.New("pcie transfer failed")
	dev := NewMockDevice(smallTensix())
	dev.writeErr = devErr
	mapping := ttx.CoreMapping{{X: 0, Y: 0}: {{X: 2, Y: 1}}}

	_, err := New(dev).Load(context.Background(), ar, mapping)
	require.Error(t, err)

	var trErr *TransportError
	require.ErrorAs(t, err, &trErr)
	assert.Equal(t, OpWrite, trErr.Op)
	assert.Equal(t, ttx.CoreId{X: 2, Y: 1}, trErr.Core)
	assert.Equal(t, uint64(0x100), trErr.Address)
	assert.ErrorIs(t, err, devErr)
}

func TestLoadCancelled(t *testing.T) {
	ar := buildArchive(t, map[string][]byte{
		"0-0/image.bin": binImage(t, ttx.Chunk{Address: 0x100, Data: []byte{1}}),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dev := NewMockDevice(smallTensix())
	mapping := ttx.CoreMapping{{X: 0, Y: 0}: {{X: 1, Y: 1}}}

	_, err := New(dev).Load(ctx, ar, mapping)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, dev.writes)
}

func TestLoadProgressPhases(t *testing.T) {
	ar := buildArchive(t, map[string][]byte{
		"0-0/image.bin": binImage(t, ttx.Chunk{Address: 0x100, Data: []byte{1, 2, 3, 4}}),
		"1-0/image.bin": binImage(t, ttx.Chunk{Address: 0x100, Data: []byte{5, 6}}),
	})

	dev := NewMockDevice(smallTensix())
	mapping := ttx.CoreMapping{
		{X: 0, Y: 0}: {{X: 1, Y: 1}},
		{X: 1, Y: 0}: {{X: 2, Y: 2}},
	}

	var phases []string
	var last Progress
	l := New(dev, WithProgressCallback(func(p Progress) {
		phases = append(phases, p.Phase)
		last = p
	}))

	_, err := l.Load(context.Background(), ar, mapping)
	require.NoError(t, err)

	assert.Equal(t, []string{PhaseValidating, PhaseLoading, PhaseLoading, PhaseComplete}, phases)
	assert.Equal(t, 2, last.CurrentCore)
	assert.Equal(t, 2, last.TotalCores)
	assert.Equal(t, 6, last.BytesWritten)
}

func TestLoaderLogs(t *testing.T) {
	ar := buildArchive(t, map[string][]byte{
		"0-0/image.bin": binImage(t, ttx.Chunk{Address: 0x100, Data: []byte{1}}),
	})

	dev := NewMockDevice(smallTensix())
	mapping := ttx.CoreMapping{{X: 0, Y: 0}: {{X: 1, Y: 1}}}

	logger := &recordingLogger{}
	_, err := New(dev, WithLogger(logger)).Load(context.Background(), ar, mapping)
	require.NoError(t, err)
	assert.NotEmpty(t, logger.infos)
}

type recordingLogger struct {
	debugs []string
	infos  []string
	errs   []string
}

func (l *recordingLogger) Debug(msg string, kv ...interface{}) { l.debugs = append(l.debugs, msg) }
func (l *recordingLogger) Info(msg string, kv ...interface{})  { l.infos = append(l.infos, msg) }
func (l *recordingLogger) Error(msg string, kv ...interface{}) { l.errs = append(l.errs, msg) }

func TestFanoutDevice(t *testing.T) {
	tensix := smallTensix()
	dev := NewMockDevice(tensix)
	fan := &FanoutDevice{Device: dev}

	require.NoError(t, fan.NocBroadcast(0x100, []byte{0xAA, 0xBB}))

	assert.Empty(t, dev.broadcasts)
	assert.Len(t, dev.writes, len(tensix))
	for core := range tensix {
		assert.Equal(t, []byte{0xAA, 0xBB}, dev.core(core)[0x100:0x102])
	}
}

func TestNewNilDevicePanics(t *testing.T) {
	assert.Panics(t, func() { New(nil) })
}
