// Package log persists the command journal as hourly zstd-compressed JSONL
// segments under <dataDir>/journal.
package log

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"voxelcraft.ai/guardbot/internal/journal"
)

const hourLayout = "2006-01-02-15"

// segment is the open file for one UTC hour. Each reopen appends a new zstd
// frame, which decoders read as one stream.
type segment struct {
	hour time.Time
	file *os.File
	zw   *zstd.Encoder
}

func openSegment(path string, hour time.Time) (*segment, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &segment{hour: hour, file: f, zw: zw}, nil
}

func (s *segment) close() error {
	err := s.zw.Close()
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// CommandJournal writes one JSON line per parsed command and per chat reply.
// Entries go to the segment of the hour they carry, so replayed or delayed
// entries land next to their neighbours.
type CommandJournal struct {
	dir string
	now func() time.Time

	mu     sync.Mutex
	seg    *segment
	closed bool
}

func NewCommandJournal(dataDir string) *CommandJournal {
	return &CommandJournal{dir: filepath.Join(dataDir, "journal"), now: time.Now}
}

func (j *CommandJournal) path(hour time.Time) string {
	return filepath.Join(j.dir, "commands-"+hour.Format(hourLayout)+".jsonl.zst")
}

// Write is a no-op after Close.
func (j *CommandJournal) Write(e journal.Entry) error {
	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode journal entry: %w", err)
	}
	line = append(line, '\n')

	at := e.Time
	if at.IsZero() {
		at = j.now()
	}
	hour := at.UTC().Truncate(time.Hour)

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	if j.seg == nil || !j.seg.hour.Equal(hour) {
		if j.seg != nil {
			err := j.seg.close()
			j.seg = nil
			if err != nil {
				return fmt.Errorf("close journal segment: %w", err)
			}
		}
		if j.seg, err = openSegment(j.path(hour), hour); err != nil {
			return fmt.Errorf("open journal segment: %w", err)
		}
	}
	if _, err := j.seg.zw.Write(line); err != nil {
		return err
	}
	// Each line becomes a complete block so a crash loses at most the
	// entry being written.
	return j.seg.zw.Flush()
}

func (j *CommandJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.closed = true
	if j.seg == nil {
		return nil
	}
	err := j.seg.close()
	j.seg = nil
	return err
}
