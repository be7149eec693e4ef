// Package journal provides the default trade journal: an append-only JSONL
// file, one record per line, human-inspectable and replayable.
package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/alanyoungcy/crossarb/internal/domain"
)

// FileJournal appends trade records to a JSONL file. It is safe for
// concurrent use; records are flushed to disk on every append.
type FileJournal struct {
	path string
	mu   sync.Mutex
	f    *os.File
}

// OpenFile opens (or creates) the journal at path. Parent directories are
// created as needed.
func OpenFile(path string) (*FileJournal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("journal: create dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	return &FileJournal{path: path, f: f}, nil
}

// Append writes one record as a single JSON line and syncs the file.
func (j *FileJournal) Append(_ context.Context, rec domain.TradeRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("journal: marshal record: %w", err)
	}
	line = append(line, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.f.Write(line); err != nil {
		return fmt.Errorf("journal: write: %w", err)
	}
	if err := j.f.Sync(); err != nil {
		return fmt.Errorf("journal: sync: %w", err)
	}
	return nil
}

// Replay streams every stored record in append order. A malformed line makes
// the whole journal unreadable; the caller must refuse to trade on it.
func (j *FileJournal) Replay(ctx context.Context, fn func(domain.TradeRecord) error) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.Open(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("journal: open for replay: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return err
		}
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec domain.TradeRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("journal: line %d: %w", lineNo, err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("journal: scan: %w", err)
	}
	return nil
}

// Recent returns up to n most recent records, newest first.
func (j *FileJournal) Recent(ctx context.Context, n int) ([]domain.TradeRecord, error) {
	var all []domain.TradeRecord
	err := j.Replay(ctx, func(rec domain.TradeRecord) error {
		all = append(all, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.TradeRecord, 0, n)
	for i := len(all) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

// Path returns the journal file location.
func (j *FileJournal) Path() string { return j.path }

// Close releases the underlying file handle.
func (j *FileJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.f.Close()
}
