package translog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	contractx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/contract"
)

const (
	transcriptsDir = "transcripts"
	dateLayout     = "2006-01-02"

	dirPerm  = 0o700
	filePerm = 0o600
)

var ErrInvalidSessionID = errors.New("invalid session id")

var (
	sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)
	dateDirPattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

var _ contractx.TranscriptSink = (*Recorder)(nil)

// Recorder appends raw conversation turns as JSON lines, one file per
// session grouped under the day the turns were recorded:
//
//	<root>/transcripts/YYYY-MM-DD/<session>.jsonl
//
// Raw transcripts are debugging material, not memory; nothing reads them
// back into context.
type Recorder struct {
	root string
	now  func() time.Time

	mu sync.Mutex
}

type Option func(*Recorder)

func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

func NewRecorder(root string, opts ...Option) (*Recorder, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("transcript root is required")
	}

	r := &Recorder{root: root, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func MustNewRecorder(root string, opts ...Option) *Recorder {
	r, err := NewRecorder(root, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Recorder) Record(ctx context.Context, sessionID string, entries ...contractx.Entry) error {
	if !sessionIDPattern.MatchString(sessionID) {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, sessionID)
	}
	if len(entries) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range entries {
		if err := enc.Encode(entries[i]); err != nil {
			return fmt.Errorf("translog: encode entry: %w", err)
		}
	}

	dir := filepath.Join(r.root, transcriptsDir, r.now().Format(dateLayout))

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("translog: create %s: %w", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, sessionID+".jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("translog: open transcript: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("translog: append transcript: %w", err)
	}
	return f.Close()
}

// Prune deletes transcript day directories older than keepDays. It runs on
// the curation schedule so disk use on the robot stays bounded.
func (r *Recorder) Prune(ctx context.Context, keepDays int) error {
	if keepDays <= 0 {
		return nil
	}
	cutoff := r.now().AddDate(0, 0, -keepDays).Format(dateLayout)

	days, err := os.ReadDir(filepath.Join(r.root, transcriptsDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("translog: list transcripts: %w", err)
	}

	for _, day := range days {
		if !day.IsDir() || !dateDirPattern.MatchString(day.Name()) {
			continue
		}
		if day.Name() >= cutoff {
			continue
		}
		if err := os.RemoveAll(filepath.Join(r.root, transcriptsDir, day.Name())); err != nil {
			return fmt.Errorf("translog: prune %s: %w", day.Name(), err)
		}
	}
	return nil
}
