package varch

import (
	"io"
	"log"
)

// barNameFieldSize is the usual fixed width of a BAR entry's name field.
// Some titles (observed with the "M39A" build tag) only reserve 252 bytes;
// that's detected per-entry, not assumed from the filename.
const barNameFieldSize = 256

// parseBAR parses a BAR container. BAR has no magic number of its own — it's
// the fallback format Mount dispatches to once every other magic, and the
// ".d2"/".dat" extension check, have failed to match.
func parseBAR(path string) (*Archive, error) {
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

	if _, err := src.Seek(10, io.SeekCurrent); err != nil {
		return nil, newIOErr("parseBAR", path, err)
	}
	fileCount, err := readUint16LE(src)
	if err != nil {
		return nil, newParseErr("parseBAR", path, err)
	}

	var i uint16
	for i = 0; i < fileCount; i++ {
		if err := parseBAREntry(src, backing.Entries); err != nil {
			log.Printf("varch: error in BAR archive parsing %s: %v", path, err)
			log.Printf("varch: continuing with %d files parsed", len(backing.Entries))
			break
		}
	}

	return newArchive(backing), nil
}

func parseBAREntry(src io.ReadSeeker, entries map[string]EntryInfo) error {
	name, _, err := readFixedName(src, barNameFieldSize)
	if err != nil {
		return err
	}

	// M39A-style archives use a 252-byte name field instead of 256; detect
	// it by probing the next i32 for the sentinel -1 and rewinding
	// accordingly, rather than trusting the filename to say so.
	probe, err := readInt32LE(src)
	if err != nil {
		return err
	}
	if probe == -1 {
		if _, err := src.Seek(-8, io.SeekCurrent); err != nil {
			return err
		}
	} else {
		if _, err := src.Seek(-4, io.SeekCurrent); err != nil {
			return err
		}
	}

	magic1, err := readInt32LE(src)
	if err != nil {
		return err
	}
	magic2, err := readInt32LE(src)
	if err != nil {
		return err
	}
	if magic1 != 3 || magic2 != -1 {
		return newMalformedErr("parseBAR", "", "unexpected BAR entry magic numbers")
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
