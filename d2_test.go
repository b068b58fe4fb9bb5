package varch

import (
	"bytes"
	"testing"
)

func TestParseD2Entry(t *testing.T) {
	data := []byte{
		1, 58, 0, 0, 0, 46, 186, 0, 0, 206, 203, 163, 235, 41, 226, 210, 81, 64, 60, 119, 164,
		75, 147, 240, 0, 100, 47, 76, 77, 65, 47, 99, 111, 110, 116, 101, 110, 116, 115, 47,
		48, 47, 48, 47, 99, 47, 50, 99, 102, 52, 49, 100, 53, 99, 52, 50, 55, 57, 97, 50, 54,
		99, 101, 99, 53, 54, 52, 56, 57, 57, 100, 97, 50, 50, 57, 57, 49, 57, 57, 99, 97, 51,
		50,
	}
	entries := make(map[string]EntryInfo)
	r := bytes.NewReader(data)
	if err := parseD2Entry(r, entries); err != nil {
		t.Fatalf("parseD2Entry failed: %v", err)
	}

	const wantName = "d/LMA/contents/0/0/c/2cf41d5c4279a26cec564899da2299199ca32"
	info, ok := entries[wantName]
	if !ok {
		t.Fatalf("entry %q not recorded; entries=%v", wantName, entries)
	}
	if info.Size != 47662 {
		t.Errorf("size = %d, want 47662", info.Size)
	}
}
