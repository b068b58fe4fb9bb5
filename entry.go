package varch

import (
	"bytes"
	"io"
	"os"
	"strings"
)

// EntryInfo describes one file recorded in a container's index: where its
// payload lives within the backing (offset/size) and, for MAR/M32 entries,
// the factory that builds a fresh cipher instance each time the entry is
// opened (see CipherFactory — a shared *Cipher would leak mutable keystream
// state across opens).
type EntryInfo struct {
	Size   uint64
	Offset uint64
	Cipher *CipherFactory
}

// ArchiveBacking is one physical container contributing entries to an
// Archive. SourcePath names the file on disk; exactly one of the direct-I/O
// path (re-open SourcePath per VFile) or the in-memory Buffer is used,
// decided once up front by selectBackend, except for CAB backings, which
// always hold the decompressed "arcfile" member in Buffer.
type ArchiveBacking struct {
	SourcePath string
	Entries    map[string]EntryInfo
	Buffer     []byte
}

// newBacking constructs a backing with an initialized entry map.
func newBacking(sourcePath string, buffer []byte) *ArchiveBacking {
	return &ArchiveBacking{
		SourcePath: sourcePath,
		Entries:    make(map[string]EntryInfo),
		Buffer:     buffer,
	}
}

// Archive is a read-only view over one or more backings (a single container,
// or several composed via a ULST/INFO index). Lookups resolve against the
// backings in order, first match wins, mirroring how a later container in a
// patch chain never shadows an earlier one's entries under this scheme.
type Archive struct {
	backings []*ArchiveBacking
}

// newArchive builds a single-backing Archive, the shape every leaf format
// parser (QAR, BAR, D2, MAR, CAB) produces.
func newArchive(backing *ArchiveBacking) *Archive {
	return &Archive{backings: []*ArchiveBacking{backing}}
}

// newCompositeArchive builds an empty Archive meant to absorb other Archives
// mounted for a ULST or INFO index's sibling entries.
func newCompositeArchive() *Archive {
	return &Archive{}
}

// merge appends another Archive's backings onto this one, preserving order
// so that the earliest-mounted sibling still wins on name collisions.
func (a *Archive) merge(other *Archive) {
	a.backings = append(a.backings, other.backings...)
}

// List returns every entry name known to this Archive, across all backings.
func (a *Archive) List() []string {
	var names []string
	for _, b := range a.backings {
		for name := range b.Entries {
			names = append(names, name)
		}
	}
	return names
}

// Exists reports whether name resolves to an entry in any backing.
func (a *Archive) Exists(name string) bool {
	name = normalizeName([]byte(name))
	for _, b := range a.backings {
		if _, ok := b.Entries[name]; ok {
			return true
		}
	}
	return false
}

// Open resolves name against the first backing that defines it and returns
// a VFile positioned at the start of its payload.
func (a *Archive) Open(name string) (*VFile, error) {
	key := normalizeName([]byte(name))
	for _, b := range a.backings {
		if info, ok := b.Entries[key]; ok {
			return newVFile(key, info, b)
		}
	}
	return nil, newNotFoundErr("Archive.Open", name)
}

// Read is a convenience that opens name and reads its entire contents.
func (a *Archive) Read(name string) ([]byte, error) {
	f, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, f.Size())
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, newIOErr("Archive.Read", name, err)
	}
	return buf, nil
}

// openParseSource opens the reader a format parser reads the container's
// index from: either the probed in-memory buffer, or a fresh handle on the
// file itself. The caller is responsible for closing the returned closer
// (nil when reading from a buffer).
func openParseSource(backing *ArchiveBacking) (io.ReadSeeker, io.Closer, error) {
	if backing.Buffer != nil {
		return bytes.NewReader(backing.Buffer), nil, nil
	}
	f, err := os.Open(backing.SourcePath)
	if err != nil {
		return nil, nil, newIOErr("openParseSource", backing.SourcePath, err)
	}
	return f, f, nil
}

// GuessContentsFolder returns the prefix of the first entry name that has a
// "contents" path component, up to and including that component, or "" if
// no entry matches.
// This mirrors how the games this format was built for split trees at a
// conventional "contents" directory regardless of what precedes it.
func (a *Archive) GuessContentsFolder() string {
	for _, name := range a.List() {
		parts := strings.Split(name, "/")
		for i, part := range parts {
			if part == "contents" {
				return strings.Join(parts[:i+1], "/")
			}
		}
	}
	return ""
}
