package varch

import (
	"io"
	"os"
	"path/filepath"
)

// maxMountDepth bounds how many sibling archives a ULST or INFO index may
// recursively mount. Neither format's layout can self-reference in a way
// that's detectable ahead of time, so this is a defensive cap rather than a
// cycle detector: a mount chain deeper than this is logged and abandoned
// rather than followed forever.
const maxMountDepth = 8

// Mount opens path, identifies its container format, and parses it into an
// Archive. Format identification first tries the 4-byte magic prefix every
// format but BAR and D2 carries; if no magic matches, the file extension
// decides between D2 (".d2"/".dat") and BAR (everything else), matching how
// those two formats were never given one of their own.
func Mount(path string) (*Archive, error) {
	return mount(path, 0)
}

func mount(path string, depth int) (*Archive, error) {
	if depth > maxMountDepth {
		return nil, newMalformedErr("mount", path, "composite mount recursion depth exceeded")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, newIOErr("mount", path, err)
	}
	var magic [4]byte
	_, err = io.ReadFull(f, magic[:])
	f.Close()
	if err != nil {
		return nil, newIOErr("mount", path, err)
	}

	switch magic {
	case [4]byte{'Q', 'A', 'R', 0}:
		return parseQAR(path)
	case [4]byte{'M', 'A', 'S', 'M'}:
		return parseMAR(path)
	case [4]byte{'U', 'L', 'S', 'T'}:
		return parseULST(path, depth)
	case [4]byte{'N', 'A', 'M', 'E'}:
		return parseINFO(path, depth)
	case [4]byte{'M', 'S', 'C', 'F'}:
		return parseCAB(path)
	}

	ext := filepath.Ext(path)
	if ext == ".d2" || ext == ".dat" {
		return parseD2(path)
	}
	return parseBAR(path)
}
