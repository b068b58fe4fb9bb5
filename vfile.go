package varch

import (
	"bytes"
	"io"
	"os"
)

// VFile is a read-only, seekable view of one entry inside an Archive. It
// reads either from a freshly-opened copy of the backing's source file or
// from a shared in-memory buffer, whichever the backing was built with, and
// transparently decrypts MAR/M32 payloads as they're read.
type VFile struct {
	name   string
	info   EntryInfo
	source io.ReadSeeker
	closer io.Closer
	cipher *Cipher
	pos    uint64
}

func newVFile(name string, info EntryInfo, backing *ArchiveBacking) (*VFile, error) {
	var source io.ReadSeeker
	var closer io.Closer

	if backing.Buffer != nil {
		source = bytes.NewReader(backing.Buffer)
	} else {
		f, err := os.Open(backing.SourcePath)
		if err != nil {
			return nil, newIOErr("VFile.open", name, err)
		}
		source = f
		closer = f
	}

	if _, err := source.Seek(int64(info.Offset), io.SeekStart); err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, newIOErr("VFile.open", name, err)
	}

	var cipher *Cipher
	if info.Cipher != nil {
		cipher = info.Cipher.New()
	}

	return &VFile{name: name, info: info, source: source, closer: closer, cipher: cipher}, nil
}

// Name returns the entry's canonical, forward-slash name.
func (f *VFile) Name() string { return f.name }

// Size returns the entry's declared payload size.
func (f *VFile) Size() uint64 { return f.info.Size }

// Read implements io.Reader, reading from the current position up to the
// entry's declared size and, if the entry is encrypted, decrypting in place
// before returning.
func (f *VFile) Read(buf []byte) (int, error) {
	if f.pos >= f.info.Size {
		return 0, io.EOF
	}

	toRead := int(f.info.Size - f.pos)
	if toRead > len(buf) {
		toRead = len(buf)
	}

	n, err := f.source.Read(buf[:toRead])
	f.pos += uint64(n)
	if f.cipher != nil && n > 0 {
		f.cipher.Crypt(buf[:n])
	}
	if err != nil && err != io.EOF {
		return n, newIOErr("VFile.Read", f.name, err)
	}
	return n, err
}

// Seek implements io.Seeker, keeping the underlying source reader, the
// logical position, and (for encrypted entries) the cipher's own position
// all in lockstep.
func (f *VFile) Seek(offset int64, whence int) (int64, error) {
	if f.cipher != nil {
		if _, err := f.cipher.Seek(offset, whence); err != nil {
			return 0, err
		}
	}

	switch whence {
	case io.SeekStart:
		if offset < 0 {
			return 0, newInvalidArgErr("VFile.Seek", "negative offset")
		}
		if _, err := f.source.Seek(int64(f.info.Offset)+offset, io.SeekStart); err != nil {
			return 0, newIOErr("VFile.Seek", f.name, err)
		}
		f.pos = uint64(offset)
	case io.SeekEnd:
		if offset < 0 && uint64(-offset) > f.info.Size {
			return 0, newInvalidArgErr("VFile.Seek", "seeked before start of file")
		}
		newPos := addSigned(f.info.Size, offset)
		if _, err := f.source.Seek(int64(f.info.Offset+newPos), io.SeekStart); err != nil {
			return 0, newIOErr("VFile.Seek", f.name, err)
		}
		f.pos = newPos
	case io.SeekCurrent:
		if offset < 0 && uint64(-offset) > f.pos {
			return 0, newInvalidArgErr("VFile.Seek", "seeked before start of file")
		}
		if _, err := f.source.Seek(offset, io.SeekCurrent); err != nil {
			return 0, newIOErr("VFile.Seek", f.name, err)
		}
		f.pos = addSigned(f.pos, offset)
	default:
		return 0, newInvalidArgErr("VFile.Seek", "invalid whence")
	}

	return int64(f.pos), nil
}

// Close releases the underlying file handle, if this VFile owns one. VFiles
// backed by a shared in-memory buffer have nothing to release.
func (f *VFile) Close() error {
	if f.closer != nil {
		return f.closer.Close()
	}
	return nil
}
