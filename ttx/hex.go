package ttx

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// HexReader decodes the line-oriented hex image format as a lazy,
// one-pass sequence of chunks, one per '@' address block.
type HexReader struct {
	sc       *bufio.Scanner
	address  uint64
	haveAddr bool
	buf      []byte
	done     bool
}

// NewHexReader returns a reader over a hex image stream.
func NewHexReader(r io.Reader) *HexReader {
	return &HexReader{sc: bufio.NewScanner(r)}
}

// Next returns the next non-empty block, or io.EOF at end of stream.
// A block is flushed when the next '@' directive begins, or when the
// stream ends.
func (hr *HexReader) Next() (Chunk, error) {
	if hr.done {
		return Chunk{}, io.EOF
	}

	for hr.sc.Scan() {
		line := strings.TrimSpace(hr.sc.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "@") {
			word, err := strconv.ParseUint(line[1:], 16, 64)
			if err != nil {
				return Chunk{}, formatErrorf("bad address line %q: %v", line, err)
			}
			flushed, ok := hr.flush()
			// Word address, times 4 to turn it into a byte address.
			hr.address = word * 4
			hr.haveAddr = true
			if ok {
				return flushed, nil
			}
			continue
		}

		if !hr.haveAddr {
			return Chunk{}, formatErrorf("data word %q before any address directive", line)
		}
		word, err := strconv.ParseUint(line, 16, 32)
		if err != nil {
			return Chunk{}, formatErrorf("bad data word %q: %v", line, err)
		}
		var le [4]byte
		binary.LittleEndian.PutUint32(le[:], uint32(word))
		hr.buf = append(hr.buf, le[:]...)
	}

	if err := hr.sc.Err(); err != nil {
		return Chunk{}, fmt.Errorf("read hex image: %w", err)
	}

	hr.done = true
	if flushed, ok := hr.flush(); ok {
		return flushed, nil
	}
	return Chunk{}, io.EOF
}

func (hr *HexReader) flush() (Chunk, bool) {
	if len(hr.buf) == 0 {
		return Chunk{}, false
	}
	chunk := Chunk{Address: hr.address, Data: hr.buf}
	hr.buf = nil
	return chunk, true
}

// ReadMemBlock reads a single-block hex memory file: one '@' address
// line followed by data words until end of stream. Test descriptors
// reference files in this shape for completion checks.
func ReadMemBlock(r io.Reader) (Chunk, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return Chunk{}, fmt.Errorf("read memory file: %w", err)
		}
		return Chunk{}, formatErrorf("empty memory file")
	}

	line := strings.TrimSpace(sc.Text())
	if !strings.HasPrefix(line, "@") {
		return Chunk{}, formatErrorf("memory file does not start with an address line")
	}
	word, err := strconv.ParseUint(line[1:], 16, 64)
	if err != nil {
		return Chunk{}, formatErrorf("bad address line %q: %v", line, err)
	}

	chunk := Chunk{Address: word * 4}
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		w, err := strconv.ParseUint(line, 16, 32)
		if err != nil {
			return Chunk{}, formatErrorf("bad data word %q: %v", line, err)
		}
		var le [4]byte
		binary.LittleEndian.PutUint32(le[:], uint32(w))
		chunk.Data = append(chunk.Data, le[:]...)
	}
	if err := sc.Err(); err != nil {
		return Chunk{}, fmt.Errorf("read memory file: %w", err)
	}

	return chunk, nil
}
