package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"ttxload/ttx"
)

// chunkReader is the shared shape of the ttx image decoders.
type chunkReader interface {
	Next() (ttx.Chunk, error)
}

// Loader dispatches TTX archives to a single chip.
//
// Writes against one chip are strictly ordered and never reordered or
// parallelized: later chunks may depend on earlier ones (ckernels are
// written after the base image they extend). Use one Loader per chip;
// independent chips can be loaded in parallel.
type Loader struct {
	device Device
	config Config
}

// New creates a Loader for the given device.
//
// Example:
//
//	l := loader.New(device,
//	    loader.WithVerify(true),
//	    loader.WithProgressCallback(progressFunc),
//	)
func New(device Device, opts ...Option) *Loader {
	if device == nil {
		panic("device cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Loader{device: device, config: cfg}
}

// loadState carries the counters threaded through one load.
type loadState struct {
	start        time.Time
	currentCore  int
	totalCores   int
	bytesWritten int
}

// Load validates the archive against the core mapping and the chip's
// tensix locations, then writes every per-core image:
//
//   - Broadcast mode (the mapping is exactly {0-0: all tensix cores})
//     dispatches chunks as broadcast writes. With verification enabled
//     the read-back fans out across every tensix core, since there is
//     no broadcast read.
//   - Per-core mode writes each logical core's chunks to every
//     physical core it maps to, verifying each write by an immediate
//     read-back when enabled.
//
// Validation failures are returned before any write is issued. A
// verification or transport failure aborts the load; cores already
// written are not rolled back.
//
// Load returns the set of logical source cores that received an image.
// In broadcast mode that is the full tensix set. Callers use it to
// scope reset and completion-check operations to loaded cores.
func (l *Loader) Load(ctx context.Context, ar *ttx.Archive, mapping ttx.CoreMapping) (ttx.CoreSet, error) {
	if ar == nil {
		return nil, fmt.Errorf("archive cannot be nil")
	}

	start := time.Now()

	tensix, err := l.device.TensixLocations()
	if err != nil {
		return nil, fmt.Errorf("query tensix locations: %w", err)
	}

	l.reportProgress(Progress{Phase: PhaseValidating})

	cls := ar.Classify()
	if err := cls.Validate(mapping, tensix); err != nil {
		return nil, err
	}

	sources := cls.ImageCores().Sorted()
	broadcast := mapping.IsBroadcast(tensix)

	l.logDebug("archive validated",
		"source_cores", len(sources),
		"broadcast", broadcast,
		"verify", l.config.Verify,
	)

	st := &loadState{start: start, totalCores: len(sources)}

	loaded := ttx.CoreSet{}
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("cancelled: %w", err)
		}

		var targets []ttx.CoreId
		var fanout ttx.CoreSet
		if broadcast {
			fanout = tensix
		} else {
			targets = mapping[source]
		}

		if err := l.loadCore(ctx, ar, cls, source, targets, fanout, st); err != nil {
			return nil, err
		}

		loaded.Add(source)
		st.currentCore++
		l.reportProgress(Progress{
			Phase:        PhaseLoading,
			CurrentCore:  st.currentCore,
			TotalCores:   st.totalCores,
			BytesWritten: st.bytesWritten,
			ElapsedTime:  time.Since(st.start),
		})
	}

	l.reportProgress(Progress{
		Phase:        PhaseComplete,
		CurrentCore:  st.currentCore,
		TotalCores:   st.totalCores,
		BytesWritten: st.bytesWritten,
		ElapsedTime:  time.Since(st.start),
	})

	l.logInfo("load complete",
		"source_cores", st.currentCore,
		"bytes", st.bytesWritten,
		"elapsed", time.Since(st.start).String(),
	)

	if broadcast {
		return tensix, nil
	}
	return loaded, nil
}

// loadCore loads the base image and then the ckernels image for one
// logical source core. Order matters: ckernels extend the base image.
// After classification only one encoding survives per role.
func (l *Loader) loadCore(ctx context.Context, ar *ttx.Archive, cls *ttx.Classification, source ttx.CoreId, targets []ttx.CoreId, fanout ttx.CoreSet, st *loadState) error {
	roles := []struct {
		role string
		bin  ttx.CoreSet
		hex  ttx.CoreSet
	}{
		{ttx.RoleImage, cls.ImageBin, cls.ImageHex},
		{ttx.RoleCkernels, cls.CkernelsBin, cls.CkernelsHex},
	}

	for _, r := range roles {
		var name string
		var binEncoded bool
		switch {
		case r.hex.Contains(source):
			name = fmt.Sprintf("%v/%s.hex", source, r.role)
		case r.bin.Contains(source):
			name = fmt.Sprintf("%v/%s.bin", source, r.role)
			binEncoded = true
		default:
			continue
		}

		if err := l.loadEntry(ctx, ar, name, binEncoded, targets, fanout, st); err != nil {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}

	return nil
}

// loadEntry decodes one archive entry and dispatches its chunks.
func (l *Loader) loadEntry(ctx context.Context, ar *ttx.Archive, name string, binEncoded bool, targets []ttx.CoreId, fanout ttx.CoreSet, st *loadState) error {
	rc, err := ar.Open(name)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	var chunks chunkReader
	if binEncoded {
		br, err := ttx.NewBinReader(rc)
		if err != nil {
			return err
		}
		chunks = br
	} else {
		chunks = ttx.NewHexReader(rc)
	}

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cancelled: %w", err)
		}

		chunk, err := chunks.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		if err := l.dispatchChunk(chunk, targets, fanout); err != nil {
			return err
		}
		st.bytesWritten += len(chunk.Data)
	}
}

// dispatchChunk issues the writes and read-back verification for one
// chunk. A nil target list selects broadcast mode: the chunk goes out
// as a single broadcast write, and verification (when enabled) reads
// it back from every tensix core, as there is no broadcast read.
func (l *Loader) dispatchChunk(chunk ttx.Chunk, targets []ttx.CoreId, fanout ttx.CoreSet) error {
	if targets == nil {
		if err := l.device.NocBroadcast(chunk.Address, chunk.Data); err != nil {
			return &TransportError{Op: OpBroadcast, Broadcast: true, Address: chunk.Address, Err: err}
		}
		if !l.config.Verify {
			return nil
		}
		for _, core := range fanout.Sorted() {
			if err := l.verifyChunk(core, chunk); err != nil {
				return err
			}
		}
		return nil
	}

	for _, core := range targets {
		if err := l.device.NocWrite(core, chunk.Address, chunk.Data); err != nil {
			return &TransportError{Op: OpWrite, Core: core, Address: chunk.Address, Err: err}
		}
		if l.config.Verify {
			if err := l.verifyChunk(core, chunk); err != nil {
				return err
			}
		}
	}
	return nil
}

// verifyChunk reads the chunk's address range back from one core and
// byte-compares it against the written data.
func (l *Loader) verifyChunk(core ttx.CoreId, chunk ttx.Chunk) error {
	got, err := l.device.NocRead(core, chunk.Address, len(chunk.Data))
	if err != nil {
		return &TransportError{Op: OpRead, Core: core, Address: chunk.Address, Err: err}
	}
	if !bytes.Equal(got, chunk.Data) {
		return &VerificationError{Core: core, Address: chunk.Address}
	}
	return nil
}

// reportProgress calls the progress callback if configured.
func (l *Loader) reportProgress(progress Progress) {
	if l.config.ProgressCallback != nil {
		l.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (l *Loader) logDebug(msg string, keysAndValues ...interface{}) {
	if l.config.Logger != nil {
		l.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (l *Loader) logInfo(msg string, keysAndValues ...interface{}) {
	if l.config.Logger != nil {
		l.config.Logger.Info(msg, keysAndValues...)
	}
}
