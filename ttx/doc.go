// Package ttx provides parsing for TTX workload archives.
//
// # TTX Archive Format
//
// A TTX archive is a zip bundle carrying per-core firmware images plus a
// structured test descriptor. Image entries are named by the logical core
// they target:
//
//	<x>-<y>/image.bin       base image, binary container format
//	<x>-<y>/image.hex       base image, line-oriented hex format
//	<x>-<y>/ckernels.bin    compute kernels, binary container format
//	<x>-<y>/ckernels.hex    compute kernels, line-oriented hex format
//	test.yaml               test descriptor (completion checks)
//
// A hex entry is a back-compat duplicate: whenever a bin entry exists for
// the same core and role, the hex entry is ignored.
//
// # Binary Container Format
//
// All fields are little-endian. The file starts with a fixed 32-byte
// header:
//
//	u32 magic (0x9704266B)
//	u32 x 7 reserved, must be zero
//
// followed by zero or more chunk records:
//
//	u64 address
//	u32 length
//	u32 reserved, must be zero
//	length bytes of payload
//
// The stream ends cleanly only between chunks.
//
// # Hex Image Format
//
// ASCII text. A line beginning with '@' starts a new block whose byte
// address is the hex value after '@' multiplied by 4 (word address to
// byte address). Every other non-blank line is one hex-encoded 32-bit
// word, appended little-endian to the current block.
//
// # Usage
//
// Open an archive and classify its image entries:
//
//	ar, err := ttx.OpenArchive("workload.ttx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ar.Close()
//
//	cls := ar.Classify()
//	for _, core := range cls.ImageCores().Sorted() {
//	    fmt.Println("image for core", core)
//	}
//
// Decode a binary image entry chunk by chunk:
//
//	rc, _ := ar.Open("0-0/image.bin")
//	br, err := ttx.NewBinReader(rc)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for {
//	    chunk, err := br.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Printf("0x%X: %d bytes\n", chunk.Address, len(chunk.Data))
//	}
package ttx
