// Package jsonl keeps the audit log as one JSON object per line.
package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/user/illust-harvester/internal/entity"
	"github.com/user/illust-harvester/internal/repository"
)

const maxLineSize = 1 << 20

// DefaultPageSize is used when ReadPage is given no page size.
const DefaultPageSize = 50

// AuditLog is the append-only download log on the local filesystem.
type AuditLog struct {
	path string
	mu   sync.Mutex
}

var (
	_ repository.AuditLog    = (*AuditLog)(nil)
	_ repository.AuditReader = (*AuditLog)(nil)
)

// NewAuditLog opens the log at path, creating it and its directory if needed.
func NewAuditLog(path string) (*AuditLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return &AuditLog{path: path}, nil
}

// Path returns the file backing the log.
func (l *AuditLog) Path() string { return l.path }

// Append writes record as one line. Errors wrap entity.ErrAuditWrite.
func (l *AuditLog) Append(_ context.Context, record entity.ProgressEvent) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: %w", entity.ErrAuditWrite, err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %w", entity.ErrAuditWrite, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("%w: %w", entity.ErrAuditWrite, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", entity.ErrAuditWrite, err)
	}
	return nil
}

// lines returns the non-empty lines of the log.
func (l *AuditLog) lines() ([]string, error) {
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	for sc.Scan() {
		if line := sc.Text(); line != "" {
			out = append(out, line)
		}
	}
	return out, sc.Err()
}

// ReadPage returns the 1-based page of records in file order.
func (l *AuditLog) ReadPage(_ context.Context, page, pageSize int) (*repository.AuditPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	l.mu.Lock()
	lines, err := l.lines()
	l.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}

	total := len(lines)
	result := &repository.AuditPage{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: (total + pageSize - 1) / pageSize,
		Items:      []map[string]any{},
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, total)
	for i := start; i < end; i++ {
		var item map[string]any
		if err := json.Unmarshal([]byte(lines[i]), &item); err != nil {
			return nil, fmt.Errorf("malformed audit record on line %d: %w", i+1, err)
		}
		result.Items = append(result.Items, item)
	}
	return result, nil
}

// DeleteRecord removes every line equal to record and returns how many
// were removed. Lines are compared by their decoded content.
func (l *AuditLog) DeleteRecord(_ context.Context, record map[string]any) (int, error) {
	want, err := json.Marshal(record)
	if err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	lines, err := l.lines()
	if err != nil {
		return 0, fmt.Errorf("failed to read audit log: %w", err)
	}

	kept := make([]string, 0, len(lines))
	removed := 0
	for _, line := range lines {
		if canonical(line) == string(want) {
			removed++
			continue
		}
		kept = append(kept, line)
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, l.rewrite(kept)
}

// canonical re-encodes line with sorted keys; undecodable lines never match.
func canonical(line string) string {
	var m map[string]any
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		return ""
	}
	data, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(data)
}

func (l *AuditLog) rewrite(lines []string) error {
	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".audit-*")
	if err != nil {
		return err
	}
	w := bufio.NewWriter(tmp)
	for _, line := range lines {
		w.WriteString(line)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), l.path)
}

// DeleteImage removes a downloaded image file. Only a file that some record
// points at, through destinationPath or destination plus imageName, is removed.
func (l *AuditLog) DeleteImage(_ context.Context, path string) error {
	l.mu.Lock()
	lines, err := l.lines()
	l.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to read audit log: %w", err)
	}
	if !tracked(lines, path) {
		return fmt.Errorf("%w: %s", repository.ErrUntrackedImage, path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// imageRef is the part of a record that locates its file.
type imageRef struct {
	Destination     string `json:"destination"`
	ImageName       string `json:"imageName"`
	DestinationPath string `json:"destinationPath"`
}

func tracked(lines []string, path string) bool {
	want, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, line := range lines {
		var ref imageRef
		if err := json.Unmarshal([]byte(line), &ref); err != nil {
			continue
		}
		candidates := []string{ref.DestinationPath}
		if ref.Destination != "" && ref.ImageName != "" {
			candidates = append(candidates, filepath.Join(ref.Destination, ref.ImageName))
		}
		for _, c := range candidates {
			if c == "" {
				continue
			}
			if abs, err := filepath.Abs(c); err == nil && abs == want {
				return true
			}
		}
	}
	return false
}
