package varch

import (
	"hash/crc32"
	"io"
	"log"
	"strings"

	"github.com/sigurn/crc16"
)

var marMagic = [8]byte{'M', 'A', 'S', 'M', 'A', 'R', '0', 0}

const (
	marTagFile  = 1
	marTagDir   = 2
	marTagEnd   = 0xFF
)

var crc16X25Table = crc16.MakeTable(crc16.CRC16_X_25)

// parseMAR parses a MAR container (magic "MASMAR0\0"): a tag-length stream
// where tag 1 is a file entry, tag 2 is a directory marker (read and
// discarded), and tag 0xFF ends the stream cleanly.
//
// When the archive file's own base name contains "M32", its file entries are
// encrypted with the MAR keystream cipher; the per-entry key and iv are derived from the entry's
// raw (pre-normalization) name bytes via CRC-16/X25 and CRC-32 respectively.
func parseMAR(path string) (*Archive, error) {
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

	var magic [8]byte
	if _, err := io.ReadFull(src, magic[:]); err != nil {
		return nil, newIOErr("parseMAR", path, err)
	}
	if magic != marMagic {
		return nil, newParseErr("parseMAR", path, newMalformedErr("parseMAR", path, "bad MAR magic"))
	}

	baseIsM32 := strings.Contains(filenameBase(path), "M32")

	for {
		done, err := parseMAREntry(src, backing.Entries, baseIsM32)
		if err != nil {
			log.Printf("varch: error in MAR archive parsing %s: %v", path, err)
			log.Printf("varch: continuing with %d files parsed", len(backing.Entries))
			break
		}
		if done {
			break
		}
	}

	return newArchive(backing), nil
}

// parseMAREntry parses one tag-length record. It returns done=true when the
// stream's end marker (0xFF) was read, with no error.
func parseMAREntry(src io.ReadSeeker, entries map[string]EntryInfo, baseIsM32 bool) (bool, error) {
	tag, err := readByte(src)
	if err != nil {
		return false, err
	}

	switch tag {
	case marTagFile:
		name, raw, err := readNULName(src)
		if err != nil {
			return false, err
		}
		size, err := readUint32LE(src)
		if err != nil {
			return false, err
		}
		offset, err := src.Seek(0, io.SeekCurrent)
		if err != nil {
			return false, err
		}
		if _, err := src.Seek(int64(size), io.SeekCurrent); err != nil {
			return false, err
		}

		info := EntryInfo{Size: uint64(size), Offset: uint64(offset)}
		if baseIsM32 {
			iv := crc32.ChecksumIEEE(raw)
			key := uint32(crc16.Checksum(raw, crc16X25Table)) * 3
			info.Cipher = NewCipherFactory(key, iv, uint64(size))
		}
		entries[name] = info
		return false, nil

	case marTagDir:
		if _, _, err := readNULName(src); err != nil {
			return false, err
		}
		return false, nil

	case marTagEnd:
		return true, nil

	default:
		return false, newMalformedErr("parseMAR", "", "invalid MAR entry tag")
	}
}

// readNULName reads a NUL-terminated name with no fixed field width (unlike
// QAR/BAR, MAR entries aren't padded to a constant size).
func readNULName(src io.ReadSeeker) (normalized string, raw []byte, err error) {
	raw, err = readUntilNUL(src)
	if err != nil {
		return "", nil, err
	}
	return normalizeName(raw), raw, nil
}

// filenameBase returns the final path component, working purely on byte
// content (not host path rules) since the source path may use either slash
// convention depending on how it was supplied to Mount.
func filenameBase(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if idx := strings.LastIndexByte(p, '/'); idx >= 0 {
		return p[idx+1:]
	}
	return p
}
