package varch

import (
	"io"
	"log"
)

// d2ChecksumSize is an opaque per-entry checksum field whose algorithm is
// unknown; it's skipped rather than validated.
const d2ChecksumSize = 0x10

// parseD2 parses a D2 container, reached only via the ".d2"/".dat" extension
// fallback in Mount since the format carries no magic number: a 4-byte file
// count, a 4-byte (unused) archive size, then per-entry headers of
// [marker:1][path_len:4][filesize:4][checksum:16][path:path_len] each
// immediately followed by the entry payload.
func parseD2(path string) (*Archive, error) {
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

	numFiles, err := readUint32LE(src)
	if err != nil {
		return nil, newParseErr("parseD2", path, err)
	}
	if _, err := readUint32LE(src); err != nil { // archive size, unused
		return nil, newParseErr("parseD2", path, err)
	}

	var i uint32
	for i = 0; i < numFiles; i++ {
		if err := parseD2Entry(src, backing.Entries); err != nil {
			log.Printf("varch: error in D2 archive parsing %s: %v", path, err)
			log.Printf("varch: continuing with %d files parsed", len(backing.Entries))
			break
		}
	}

	return newArchive(backing), nil
}

func parseD2Entry(src io.ReadSeeker, entries map[string]EntryInfo) error {
	marker, err := readByte(src)
	if err != nil {
		return err
	}
	if marker != 1 {
		return newMalformedErr("parseD2", "", "unexpected D2 entry marker")
	}

	pathLen, err := readUint32LE(src)
	if err != nil {
		return err
	}
	fileSize, err := readUint32LE(src)
	if err != nil {
		return err
	}
	if _, err := src.Seek(d2ChecksumSize, io.SeekCurrent); err != nil {
		return err
	}

	nameBuf := make([]byte, pathLen)
	if _, err := io.ReadFull(src, nameBuf); err != nil {
		return err
	}
	name := normalizeName(nameBuf)

	offset, err := src.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := src.Seek(int64(fileSize), io.SeekCurrent); err != nil {
		return err
	}

	entries[name] = EntryInfo{Size: uint64(fileSize), Offset: uint64(offset)}
	return nil
}
