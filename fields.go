package varch

import (
	"encoding/binary"
	"io"
)

// readByte reads a single byte from r, the building block readUntilNUL and
// the various fixed-width parsers use instead of pulling in a buffered
// reader (these formats seek and re-seek too often for buffering to help,
// and always against a freshly-opened file or an in-memory backing, so the
// extra layer isn't worth the complexity).
func readByte(r io.Reader) (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// readUntilNUL reads bytes up to and including a terminating 0 byte,
// returning them without the terminator.
func readUntilNUL(r io.Reader) ([]byte, error) {
	var buf []byte
	for {
		b, err := readByte(r)
		if err != nil {
			return nil, err
		}
		if b == 0 {
			return buf, nil
		}
		buf = append(buf, b)
	}
}

// readFixedName reads a NUL-terminated name field that occupies exactly
// fieldSize bytes of the stream (the name plus zero padding), leaving r
// positioned right after the field. It returns the name both normalized
// (for use as an Archive key) and in raw form (the exact on-disk bytes,
// without the terminator).
func readFixedName(r io.ReadSeeker, fieldSize int64) (normalized string, raw []byte, err error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return "", nil, err
	}
	raw, err = readUntilNUL(r)
	if err != nil {
		return "", nil, err
	}
	end, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return "", nil, err
	}
	if remaining := fieldSize - (end - start); remaining > 0 {
		if _, err := r.Seek(remaining, io.SeekCurrent); err != nil {
			return "", nil, err
		}
	}
	return normalizeName(raw), raw, nil
}

func readUint16LE(r io.Reader) (uint16, error) {
	var v uint16
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return 0, err
	}
	return v, nil
}

func readUint32LE(r io.Reader) (uint32, error) {
	var v uint32
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return 0, err
	}
	return v, nil
}

func readInt32LE(r io.Reader) (int32, error) {
	var v int32
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return 0, err
	}
	return v, nil
}
