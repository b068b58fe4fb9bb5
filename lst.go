package varch

import (
	"io"
	"log"
	"path/filepath"
)

var ulstMagic = [4]byte{'U', 'L', 'S', 'T'}

// ULST record field widths, per the fixed-width layout the format uses
// instead of a length-prefixed one.
const (
	ulstNameSize         = 0x20
	ulstFileNameSize     = 0x40
	ulstChecksumTypeSize = 0x8
	ulstChecksumSize     = 0x28
	ulstRecordTailPad    = 0x10 // padding after file_size, before the next record
	ulstHeaderAlign      = 0x10 // padding after file_count, before the first record
)

// parseULST parses a ULST index (magic "ULST"): a header naming how many
// sibling archives make up the update, followed by one fixed-width record
// per sibling. Each sibling is mounted from a file of the same name next to
// the index and folded into one composite Archive; a sibling that fails to
// mount is logged and skipped, not fatal, since ULST indexes are sometimes
// shipped referencing archives that were never deployed.
func parseULST(path string, depth int) (*Archive, error) {
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

	var magic [4]byte
	if _, err := io.ReadFull(src, magic[:]); err != nil {
		return nil, newIOErr("parseULST", path, err)
	}
	if magic != ulstMagic {
		return nil, newParseErr("parseULST", path, newMalformedErr("parseULST", path, "bad ULST magic"))
	}

	fileCount, err := readUint16LE(src)
	if err != nil {
		return nil, newParseErr("parseULST", path, err)
	}
	pos, err := src.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, newIOErr("parseULST", path, err)
	}
	if pad := (ulstHeaderAlign - pos%ulstHeaderAlign) % ulstHeaderAlign; pad > 0 {
		if _, err := src.Seek(pad, io.SeekCurrent); err != nil {
			return nil, newIOErr("parseULST", path, err)
		}
	}

	archive := newCompositeArchive()
	dir := filepath.Dir(path)

	var i uint16
	for i = 0; i < fileCount; i++ {
		siblingName, err := readULSTRecord(src)
		if err != nil {
			log.Printf("varch: error in ULST archive parsing %s: %v", path, err)
			log.Printf("varch: continuing with %d of %d ULST records read", i, fileCount)
			break
		}
		siblingPath := filepath.Join(dir, siblingName)
		sub, err := mount(siblingPath, depth+1)
		if err != nil {
			log.Printf("varch: ULST: failed to mount archive %s: %v", siblingName, err)
			continue
		}
		archive.merge(sub)
	}

	return archive, nil
}

// readULSTRecord reads one [name:0x20][file_name:0x40][checksum_type:0x8]
// [checksum:0x28][file_size:8][pad:0x10] record and returns the sibling
// archive's file name.
func readULSTRecord(src io.ReadSeeker) (string, error) {
	_, err := readNULPaddedField(src, ulstNameSize)
	if err != nil {
		return "", err
	}
	fileName, err := readNULPaddedField(src, ulstFileNameSize)
	if err != nil {
		return "", err
	}
	if _, err := readNULPaddedField(src, ulstChecksumTypeSize); err != nil {
		return "", err
	}
	if _, err := readNULPaddedField(src, ulstChecksumSize); err != nil {
		return "", err
	}
	if _, err := src.Seek(8+ulstRecordTailPad, io.SeekCurrent); err != nil {
		return "", err
	}
	return fileName, nil
}

// readNULPaddedField reads a fixed-width field that holds a NUL-terminated
// string, returning the string with its terminator and padding consumed but
// not included.
func readNULPaddedField(src io.ReadSeeker, fieldSize int64) (string, error) {
	buf := make([]byte, fieldSize)
	if _, err := io.ReadFull(src, buf); err != nil {
		return "", err
	}
	if idx := indexByte(buf, 0); idx >= 0 {
		buf = buf[:idx]
	}
	return string(buf), nil
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}
