// Package journal records applied script commands in CRC-framed records.
package journal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"sync"
)

const (
	HeaderSize   = 8
	MaxFrameSize = 1 << 16
)

var ErrFrameTooLarge = errors.New("journal frame too large")

// Frame layout, little endian:
//
//	uint32  payload length
//	uint32  crc32 (IEEE) of the payload
//	[]byte  payload
type Journal struct {
	mu     sync.Mutex
	file   *os.File
	path   string
	frames int
}

func Open(path string) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	return &Journal{file: f, path: path}, nil
}

func (j *Journal) Path() string {
	return j.path
}

// Append writes one frame and syncs it to disk.
func (j *Journal) Append(line string) error {
	if len(line) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(line))
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	frame := make([]byte, HeaderSize+len(line))
	binary.LittleEndian.PutUint32(frame[0:4], uint32(len(line)))
	binary.LittleEndian.PutUint32(frame[4:8], crc32.ChecksumIEEE([]byte(line)))
	copy(frame[HeaderSize:], line)

	if _, err := j.file.Write(frame); err != nil {
		return fmt.Errorf("append journal: %w", err)
	}
	j.frames++
	return j.file.Sync()
}

// Replay returns every intact frame from the start of the journal. Reading
// stops silently at the first torn or corrupt frame.
func (j *Journal) Replay() ([]string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("replay journal: %w", err)
	}

	var lines []string
	header := make([]byte, HeaderSize)
	for {
		if _, err := io.ReadFull(j.file, header); err != nil {
			break
		}
		size := binary.LittleEndian.Uint32(header[0:4])
		sum := binary.LittleEndian.Uint32(header[4:8])
		if size > MaxFrameSize {
			break
		}

		payload := make([]byte, size)
		if _, err := io.ReadFull(j.file, payload); err != nil {
			break
		}
		if crc32.ChecksumIEEE(payload) != sum {
			break
		}
		lines = append(lines, string(payload))
	}
	return lines, nil
}

// truncate is swapped in tests to simulate a failing filesystem.
var truncate = func(f *os.File, size int64) error { return f.Truncate(size) }

// Checkpoint discards every frame once the state they describe is saved.
// When the file cannot be truncated it is unlinked instead, so the frames
// are never replayed on top of the snapshot that already holds them.
func (j *Journal) Checkpoint() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.frames = 0
	if err := truncate(j.file, 0); err != nil {
		if rmErr := os.Remove(j.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return fmt.Errorf("checkpoint journal: %w", errors.Join(err, rmErr))
		}
		return nil
	}
	return j.file.Sync()
}

// Appended is the number of frames written since Open or the last Checkpoint.
func (j *Journal) Appended() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.frames
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}
