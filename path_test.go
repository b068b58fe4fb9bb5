package varch

import "testing"

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		raw  []byte
		want string
	}{
		{[]byte(".\\dev\\raw\\file.dat\x00"), "dev/raw/file.dat"},
		{[]byte("/already/clean"), "already/clean"},
		{[]byte("plain"), "plain"},
		{[]byte("./contents/a\\b"), "contents/a/b"},
	}
	for _, c := range cases {
		got := normalizeName(c.raw)
		if got != c.want {
			t.Errorf("normalizeName(%q) = %q, want %q", c.raw, got, c.want)
		}
	}
}

func TestJoinName(t *testing.T) {
	if got := joinName("", "a"); got != "a" {
		t.Errorf("joinName(\"\", \"a\") = %q, want %q", got, "a")
	}
	if got := joinName("a", "b"); got != "a/b" {
		t.Errorf("joinName(\"a\", \"b\") = %q, want %q", got, "a/b")
	}
}
