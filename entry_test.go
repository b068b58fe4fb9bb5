package varch

import "testing"

func TestArchiveSingleBacking(t *testing.T) {
	backing := newBacking("a.qar", []byte("hello world"))
	backing.Entries["greeting"] = EntryInfo{Size: 5, Offset: 6}
	archive := newArchive(backing)

	if !archive.Exists("greeting") {
		t.Fatalf("expected greeting to exist")
	}
	if archive.Exists("missing") {
		t.Fatalf("did not expect missing to exist")
	}

	data, err := archive.Read("greeting")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(data) != "world" {
		t.Errorf("Read = %q, want %q", data, "world")
	}
}

func TestArchiveOpenNotFound(t *testing.T) {
	archive := newArchive(newBacking("a.qar", []byte{}))
	if _, err := archive.Open("nope"); !IsNotFound(err) {
		t.Errorf("expected a not-found error, got %v", err)
	}
}

func TestArchiveExistsNormalizesName(t *testing.T) {
	backing := newBacking("a.qar", []byte("payload"))
	backing.Entries["dir/file.bin"] = EntryInfo{Size: 7, Offset: 0}
	archive := newArchive(backing)

	if !archive.Exists(`.\dir\file.bin`) {
		t.Errorf("expected a backslash-and-dot-prefixed lookup to normalize and match")
	}
}

func TestGuessContentsFolder(t *testing.T) {
	backing := newBacking("a.qar", nil)
	backing.Entries["KFC/contents/8/c/a/somefile"] = EntryInfo{}
	archive := newArchive(backing)

	if got, want := archive.GuessContentsFolder(), "KFC/contents"; got != want {
		t.Errorf("GuessContentsFolder() = %q, want %q", got, want)
	}
}

func TestGuessContentsFolderNoMatch(t *testing.T) {
	backing := newBacking("a.qar", nil)
	backing.Entries["plain/file"] = EntryInfo{}
	archive := newArchive(backing)

	if got := archive.GuessContentsFolder(); got != "" {
		t.Errorf("GuessContentsFolder() = %q, want empty", got)
	}
}
