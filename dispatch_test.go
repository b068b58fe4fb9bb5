package varch

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMountRoutesByMagic(t *testing.T) {
	dir := t.TempDir()

	qarPath := filepath.Join(dir, "archive.unknownext")
	writeTestQAR(t, qarPath, "contents/hello.txt", []byte("hi"))

	archive, err := Mount(qarPath)
	if err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	if !archive.Exists("contents/hello.txt") {
		t.Fatalf("expected QAR entry to be found via magic-byte routing; list=%v", archive.List())
	}
}

func TestMountExtensionFallback(t *testing.T) {
	dir := t.TempDir()

	// No recognized magic and a ".dat" extension should route to the D2
	// parser rather than falling back to BAR.
	path := filepath.Join(dir, "entry.dat")
	data := []byte{
		1, 58, 0, 0, 0, 46, 186, 0, 0, 206, 203, 163, 235, 41, 226, 210, 81, 64, 60, 119, 164,
		75, 147, 240, 0, 100, 47, 76, 77, 65, 47, 99, 111, 110, 116, 101, 110, 116, 115, 47,
		48, 47, 48, 47, 99, 47, 50, 99, 102, 52, 49, 100, 53, 99, 52, 50, 55, 57, 97, 50, 54,
		99, 101, 99, 53, 54, 52, 56, 57, 57, 100, 97, 50, 50, 57, 57, 49, 57, 57, 99, 97, 51,
		50,
	}
	var buf []byte
	buf = append(buf, 1, 0, 0, 0) // file count
	buf = append(buf, 0, 0, 0, 0) // archive size, unused
	buf = append(buf, data...)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	archive, err := Mount(path)
	if err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	const want = "d/LMA/contents/0/0/c/2cf41d5c4279a26cec564899da2299199ca32"
	if !archive.Exists(want) {
		t.Fatalf("expected D2 entry %q via extension fallback; list=%v", want, archive.List())
	}
}

func TestMountExtensionFallbackToBAR(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archive.pak")

	var buf []byte
	buf = append(buf, make([]byte, 10)...) // header bytes parseBAR skips
	buf = append(buf, 1, 0)                // file count (uint16LE) = 1

	name := make([]byte, barNameFieldSize)
	copy(name, "contents/thing.bin")
	buf = append(buf, name...)
	buf = append(buf, 3, 0, 0, 0)             // magic1 = 3
	buf = append(buf, 0xFF, 0xFF, 0xFF, 0xFF) // magic2 = -1
	buf = append(buf, 2, 0, 0, 0)             // size = 2
	buf = append(buf, 0, 0, 0, 0)             // reserved
	buf = append(buf, []byte("hi")...)

	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	archive, err := Mount(path)
	if err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	if !archive.Exists("contents/thing.bin") {
		t.Fatalf("expected BAR entry via extension fallback; list=%v", archive.List())
	}
}

func TestMountDepthGuardDirect(t *testing.T) {
	if _, err := mount("irrelevant-path", maxMountDepth+1); err == nil {
		t.Fatalf("expected an error once maxMountDepth is exceeded")
	}
}
