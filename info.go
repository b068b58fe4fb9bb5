package varch

import (
	"bufio"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// infoFilePrefix is the line prefix identifying a sibling-archive directive
// in an INFO index; everything after it, trimmed, is a file name relative
// to the INFO file itself.
const infoFilePrefix = "FILE : "

// parseINFO parses an INFO index: a plain-text file (magic "NAME" only in
// the sense that one happens to start with those four bytes) where each
// line beginning "FILE : " names a sibling archive to mount and fold into one
// composite Archive, in the same spirit as ULST but described in text
// rather than a binary record.
func parseINFO(path string, depth int) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newIOErr("parseINFO", path, err)
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, infoFilePrefix) {
			name := strings.TrimSpace(strings.TrimPrefix(line, infoFilePrefix))
			names = append(names, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, newIOErr("parseINFO", path, err)
	}

	archive := newCompositeArchive()
	dir := filepath.Dir(path)
	for _, name := range names {
		sub, err := mount(filepath.Join(dir, name), depth+1)
		if err != nil {
			log.Printf("varch: INFO: failed to mount archive %s: %v", name, err)
			continue
		}
		archive.merge(sub)
	}

	return archive, nil
}
