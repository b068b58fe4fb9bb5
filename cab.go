package varch

import (
	"bytes"
	"io"
	"log"
	"os"

	"github.com/google/go-cabfile"
)

// cabArcfileEntry is the one Cabinet member this format actually cares
// about: a single decompressed blob holding the recursive tree grammar
// parsed by parseCABFolder. Everything else a Cabinet might contain (a
// separate plain-text file list, say) is ignored.
const cabArcfileEntry = "arcfile"

const (
	cabActionLeaf     = 0x00
	cabActionInternal = 0x01
)

// parseCAB parses a CAB container (magic "MSCF"). The outer Microsoft
// Cabinet structure and its MSZIP decompression are handled entirely by
// go-cabfile; this parser only consumes the decompressed "arcfile" member,
// which holds a small recursive tree grammar of its own: action 0x00 is a
// leaf (file) entry, action 0x01 is an internal node whose param names how
// many children follow.
func parseCAB(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newIOErr("parseCAB", path, err)
	}
	defer f.Close()

	cabinet, err := cabfile.New(f)
	if err != nil {
		return nil, newParseErr("parseCAB", path, err)
	}

	content, err := cabinet.Content(cabArcfileEntry)
	if err != nil {
		return nil, newParseErr("parseCAB", path, err)
	}
	buf, err := io.ReadAll(content)
	if err != nil {
		return nil, newIOErr("parseCAB", path, err)
	}

	backing := newBacking(path, buf)
	cursor := bytes.NewReader(buf)
	for {
		pos, _ := cursor.Seek(0, io.SeekCurrent)
		if pos == int64(len(buf)) {
			break
		}
		if err := parseCABFolder(cursor, "", backing.Entries); err != nil {
			// Entries recorded before the failure are kept, as with the
			// other formats.
			log.Printf("varch: error in CAB archive parsing %s: %v", path, err)
			log.Printf("varch: continuing with %d files parsed", len(backing.Entries))
			break
		}
	}

	return newArchive(backing), nil
}

func parseCABFolder(src io.ReadSeeker, fullPath string, entries map[string]EntryInfo) error {
	action, err := readByte(src)
	if err != nil {
		return err
	}
	_, raw, err := readNULName(src)
	if err != nil {
		return err
	}
	fullPath = joinName(fullPath, normalizeName(raw))

	param, err := readInt32LE(src)
	if err != nil {
		return err
	}

	switch action {
	case cabActionLeaf:
		offset, err := src.Seek(0, io.SeekCurrent)
		if err != nil {
			return err
		}
		entries[fullPath] = EntryInfo{Size: uint64(param), Offset: uint64(offset)}
		if _, err := src.Seek(int64(param), io.SeekCurrent); err != nil {
			return err
		}
	case cabActionInternal:
		for n := int32(0); n < param; n++ {
			if err := parseCABFolder(src, fullPath, entries); err != nil {
				return err
			}
		}
	default:
		return newMalformedErr("parseCAB", "", "unrecognized CAB tree action")
	}
	return nil
}
