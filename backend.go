package varch

import (
	"io"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/dustin/go-humanize"
)

// probeSampleCount is how many random single-byte reads selectBackend times
// before deciding the underlying medium is high latency.
const probeSampleCount = 10

// probeBudget is the cumulative elapsed time, across the sampled reads,
// beyond which selectBackend gives up on direct I/O and buffers the file.
const probeBudget = 4 * time.Millisecond

// selectBackend opens path, samples its read latency, and returns an
// ArchiveBacking backed either by the open file path (for fast, presumably
// local, media) or by the file's full contents read into memory (for slow
// media, e.g. a network share, where many small seeks would dominate parse
// time). The probe itself never affects which entries are found — it only
// picks how the bytes are subsequently fetched.
func selectBackend(path string) (*ArchiveBacking, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newIOErr("selectBackend", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, newIOErr("selectBackend", path, err)
	}
	size := info.Size()
	if size == 0 {
		return newBacking(path, nil), nil
	}

	start := time.Now()
	one := make([]byte, 1)
	for i := 0; i < probeSampleCount; i++ {
		loc := rand.Int63n(size)
		if _, err := f.Seek(loc, io.SeekStart); err != nil {
			return nil, newIOErr("selectBackend", path, err)
		}
		if _, err := f.Read(one); err != nil {
			return nil, newIOErr("selectBackend", path, err)
		}

		if time.Since(start) > probeBudget {
			log.Printf("varch: high latency storage detected for %s (%s), reading full file into memory",
				path, humanize.Bytes(uint64(size)))
			if _, err := f.Seek(0, io.SeekStart); err != nil {
				return nil, newIOErr("selectBackend", path, err)
			}
			buf := make([]byte, size)
			if _, err := readAtLeast(f, buf); err != nil {
				return nil, newIOErr("selectBackend", path, err)
			}
			return newBacking(path, buf), nil
		}
	}

	return newBacking(path, nil), nil
}

func readAtLeast(f *os.File, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := f.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}
