package varch

import (
	"io"
	"log"
)

// qarNameFieldSize is the fixed width, in bytes, of a QAR entry's
// NUL-padded name field.
const qarNameFieldSize = 132

// parseQAR parses a QAR container (magic "QAR\0"): a 4-byte count followed
// by fixed-width records of [name:132][reserved:4][size:4][reserved:4],
// each immediately followed by the entry's payload.
func parseQAR(path string) (*Archive, error) {
	backing, err := selectBackend(path)
	if err != nil {
		return nil, err
	}

	src, closer, err := openParseSource(backing)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		defer closer.Close()
	}

	// The magic was already consumed by Mount's dispatch read; this parser
	// re-opens the file from scratch, so skip past it again here.
	if _, err := src.Seek(4, io.SeekCurrent); err != nil {
		return nil, newIOErr("parseQAR", path, err)
	}

	fileCount, err := readUint32LE(src)
	if err != nil {
		return nil, newParseErr("parseQAR", path, err)
	}

	var i uint32
	for i = 0; i < fileCount; i++ {
		if err := parseQAREntry(src, backing.Entries); err != nil {
			log.Printf("varch: error in QAR archive parsing %s: %v", path, err)
			log.Printf("varch: continuing with %d files parsed", len(backing.Entries))
			break
		}
	}

	return newArchive(backing), nil
}

func parseQAREntry(src io.ReadSeeker, entries map[string]EntryInfo) error {
	name, _, err := readFixedName(src, qarNameFieldSize)
	if err != nil {
		return err
	}
	if _, err := src.Seek(4, io.SeekCurrent); err != nil {
		return err
	}
	size, err := readUint32LE(src)
	if err != nil {
		return err
	}
	if _, err := src.Seek(4, io.SeekCurrent); err != nil {
		return err
	}
	offset, err := src.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := src.Seek(int64(size), io.SeekCurrent); err != nil {
		return err
	}

	entries[name] = EntryInfo{Size: uint64(size), Offset: uint64(offset)}
	return nil
}
