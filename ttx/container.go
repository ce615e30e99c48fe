package ttx

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Constants for the binary container format.
const (
	// Magic identifies a version-1 binary image container
	Magic uint32 = 0x9704266B

	// BinHeaderSize is the fixed container header size in bytes:
	// magic(4) + reserved(28)
	BinHeaderSize = 32

	// chunkHeaderSize is address(8) + length(4) + reserved(4)
	chunkHeaderSize = 16
)

// Chunk is one contiguous span of image data at a device address.
type Chunk struct {
	Address uint64
	Data    []byte
}

// BinReader decodes the binary container format as a lazy, one-pass
// sequence of chunks. The underlying stream is consumed exactly once;
// a BinReader cannot be restarted.
type BinReader struct {
	r io.Reader
}

// NewBinReader validates the fixed container header and returns a
// reader positioned at the first chunk. It fails with a FormatError
// when the magic mismatches, a reserved word is nonzero, or the header
// is truncated.
func NewBinReader(r io.Reader) (*BinReader, error) {
	var header [BinHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, formatErrorf("truncated container header: %v", err)
	}

	if magic := binary.LittleEndian.Uint32(header[0:4]); magic != Magic {
		return nil, formatErrorf("bad magic 0x%08X, want 0x%08X", magic, Magic)
	}

	for off := 4; off < BinHeaderSize; off += 4 {
		if binary.LittleEndian.Uint32(header[off:off+4]) != 0 {
			return nil, formatErrorf("container header has nonzero MBZ word at offset %d", off)
		}
	}

	return &BinReader{r: r}, nil
}

// Next returns the next non-empty chunk, or io.EOF at a clean end of
// stream. Zero-length chunk records are consumed silently. A partial
// chunk header or payload fails with a FormatError.
func (br *BinReader) Next() (Chunk, error) {
	for {
		var hdr [chunkHeaderSize]byte
		n, err := io.ReadFull(br.r, hdr[:])
		if n == 0 && err != nil {
			// Clean end: zero bytes where a chunk header was expected.
			return Chunk{}, io.EOF
		}
		if err != nil {
			return Chunk{}, formatErrorf("truncated chunk header: read %d of %d bytes", n, chunkHeaderSize)
		}

		address := binary.LittleEndian.Uint64(hdr[0:8])
		length := binary.LittleEndian.Uint32(hdr[8:12])
		if binary.LittleEndian.Uint32(hdr[12:16]) != 0 {
			return Chunk{}, formatErrorf("chunk header at address 0x%X has nonzero MBZ field", address)
		}

		if length == 0 {
			continue
		}

		data := make([]byte, length)
		if _, err := io.ReadFull(br.r, data); err != nil {
			return Chunk{}, formatErrorf("truncated chunk payload at address 0x%X: %v", address, err)
		}

		return Chunk{Address: address, Data: data}, nil
	}
}

// BinWriter encodes chunks into the binary container format.
type BinWriter struct {
	w io.Writer
}

// NewBinWriter writes the fixed container header and returns a writer
// ready to append chunk records.
func NewBinWriter(w io.Writer) (*BinWriter, error) {
	var header [BinHeaderSize]byte
	binary.LittleEndian.PutUint32(header[0:4], Magic)
	if _, err := w.Write(header[:]); err != nil {
		return nil, fmt.Errorf("write container header: %w", err)
	}
	return &BinWriter{w: w}, nil
}

// WriteChunk appends one (address, data) record.
func (bw *BinWriter) WriteChunk(address uint64, data []byte) error {
	var hdr [chunkHeaderSize]byte
	binary.LittleEndian.PutUint64(hdr[0:8], address)
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(len(data)))
	if _, err := bw.w.Write(hdr[:]); err != nil {
		return fmt.Errorf("write chunk header: %w", err)
	}
	if _, err := bw.w.Write(data); err != nil {
		return fmt.Errorf("write chunk payload: %w", err)
	}
	return nil
}
