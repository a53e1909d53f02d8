package notes

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

var header = []string{"sku", "notes"}

// FileStore is the CSV-file notes store: header row `sku,notes`, one row
// appended per newly enriched variant, flushed on every append.
type FileStore struct {
	path string

	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewFileStore opens (or creates) the store file in append mode and writes
// the header row when the file is empty.
func NewFileStore(path string) (*FileStore, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open notes file: %w", err)
	}

	writer := csv.NewWriter(f)
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat notes file: %w", err)
	}
	if info.Size() == 0 {
		if err := writer.Write(header); err != nil {
			f.Close()
			return nil, fmt.Errorf("write notes header: %w", err)
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("flush notes header: %w", err)
		}
	}

	return &FileStore{path: path, file: f, writer: writer}, nil
}

// Load reads every row, last write winning on duplicate SKUs. Missing or
// malformed files load as empty; malformed rows are skipped.
func (s *FileStore) Load(_ context.Context) (map[string]string, error) {
	entries := make(map[string]string)

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return entries, nil
		}
		return entries, fmt.Errorf("open notes file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	first := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Tolerate damaged rows; everything readable still counts.
			continue
		}
		if first {
			first = false
			if len(record) > 0 && record[0] == header[0] {
				continue
			}
		}
		if len(record) < 1 || record[0] == "" {
			continue
		}
		notes := ""
		if len(record) > 1 {
			notes = record[1]
		}
		entries[record[0]] = notes
	}

	return entries, nil
}

// Append writes one row and flushes it to disk.
func (s *FileStore) Append(_ context.Context, sku, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writer.Write([]string{sku, notes}); err != nil {
		return fmt.Errorf("write notes record: %w", err)
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("flush notes record: %w", err)
	}
	return nil
}

// Close flushes and closes the file handle.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("flush notes writer: %w", err)
	}
	return s.file.Close()
}
