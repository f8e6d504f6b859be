package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	logx "taskmate/pkg/logx"
)

// fileStore keeps insight history in a JSON Lines file.
//
// Files:
//   - <prefix>.insights.jsonl (append-only JSON Lines)
//
// The newest retain records are held in memory. Once the file carries more
// than compactFactor*retain lines it is rewritten with the retained records.
type fileStore struct {
	log    logx.Logger
	path   string
	retain int

	mu     sync.Mutex
	f      *os.File
	closed bool
	recent []InsightRecord // oldest first
	lines  int

	rename func(oldpath, newpath string) error
}

const compactFactor = 2

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	histPath := filepath.Join(dir, base) + ".insights.jsonl"

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	st := &fileStore{log: log, path: histPath, retain: cfg.retain(), rename: os.Rename}
	if err := st.replay(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	f, err := openAppend(histPath)
	if err != nil {
		return nil, err
	}
	st.f = f
	return st, nil
}

func openAppend(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
}

// replay loads the tail of the history file. Malformed lines are skipped.
func (s *fileStore) replay() error {
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		s.lines++
		var r InsightRecord
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil || r.ID == "" {
			continue
		}
		s.remember(r)
	}
	return sc.Err()
}

func (s *fileStore) remember(r InsightRecord) {
	s.recent = append(s.recent, r)
	if over := len(s.recent) - s.retain; over > 0 {
		s.recent = append(s.recent[:0:0], s.recent[over:]...)
	}
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

func (s *fileStore) AppendInsight(ctx context.Context, r InsightRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.At.IsZero() {
		r.At = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("insight history file closed")
	}
	if s.f == nil {
		// A failed compaction left no handle; retry the open.
		f, err := openAppend(s.path)
		if err != nil {
			return err
		}
		s.f = f
	}
	if err := json.NewEncoder(s.f).Encode(r); err != nil {
		return err
	}
	s.lines++
	s.remember(r)
	if s.lines > compactFactor*s.retain {
		// Best-effort compact.
		if err := s.compactLocked(); err != nil {
			s.log.Debug("insight history compact failed", logx.Err(err))
		}
	}
	return nil
}

func (s *fileStore) ListInsights(ctx context.Context, limit int) ([]InsightRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.recent)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]InsightRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.recent[i])
	}
	return out, nil
}

// compactLocked rewrites the history file with the retained records. The
// current handle stays usable until the rewritten file is in place and open.
func (s *fileStore) compactLocked() error {
	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	for _, r := range s.recent {
		if err := enc.Encode(r); err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
			return err
		}
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	rename := s.rename
	if rename == nil {
		rename = os.Rename
	}
	if err := rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	nf, err := openAppend(s.path)
	// The old handle now points at the replaced file either way.
	_ = s.f.Close()
	if err != nil {
		s.f = nil
		return err
	}
	s.f = nf
	s.lines = len(s.recent)
	return nil
}
