/*

Package varch is a read-only virtual filesystem over a family of
proprietary game-archive container formats: QAR, MAR, ULST, INFO, CAB, and
BAR/D2.

Mount identifies a container's format from its magic bytes (falling back to
extension-based dispatch for BAR/D2, which carry no magic of their own),
parses its entry index, and returns an Archive that resolves names to
VFiles: ordinary io.ReadSeekClosers that transparently decrypt MAR/M32
payloads as they're read.

This is not a full implementation of every quirk these games' archive tools
produce — it covers the formats and edge cases observed in practice,
including a deliberately-preserved bug in the MAR cipher's handling of a
file's final partial block (see Cipher in cipher.go): archives produced
against the reference tool are only byte-exact if this decoder reproduces
that bug rather than fixing it.

Formats handled:

- QAR: fixed-width records, NUL-padded 132-byte names.

- BAR/D2: BAR has no magic and is the fallback format; D2 is chosen by file
extension (".d2"/".dat"). Some BAR archives use a shorter, 252-byte name
field, detected per-entry rather than assumed.

- MAR: a tag-length stream of file and directory entries, optionally
encrypted per-entry with a non-natively-seekable 32-bit block XOR
keystream, made practically seekable here via a checkpoint table.

- ULST/INFO: index files that mount one or more sibling archives and
compose them into a single Archive, first-match-wins on name collisions.

- CAB: outer Microsoft Cabinet parsing and decompression is delegated to
go-cabfile; this package only parses the small recursive tree grammar
inside the cabinet's decompressed "arcfile" member.

*/
package varch
