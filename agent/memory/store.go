package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	contractx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/contract"
)

const (
	curatedFile = "MEMORY.md"
	familyDir   = "family"
	sessionsDir = "sessions"

	baseSuffix  = ".md"
	localSuffix = ".local.md"

	dateLayout = "2006-01-02"
	timeLayout = "15:04"

	dirPerm  = 0o700
	filePerm = 0o600
)

var (
	ErrInvalidDate     = errors.New("invalid session date")
	ErrInvalidPersonID = errors.New("invalid person id")
)

var (
	datePattern     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	personIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
	sessionHeader   = regexp.MustCompile(`(?m)^## Session — .*$`)
)

var _ contractx.Store = (*FileStore)(nil)

// FileStore keeps every memory entity as a UTF-8 markdown file under one
// root, readable and editable outside the agent:
//
//	<root>/MEMORY.md                   curated long-term memory
//	<root>/family/<person>.md          base profile, shareable
//	<root>/family/<person>.local.md    private override, wins when present
//	<root>/sessions/YYYY-MM-DD.md      dated session log, append-only
type FileStore struct {
	root string
	now  func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

type StoreOption func(*FileStore)

// WithClock overrides the store clock. Session headers, learned-note dates
// and the recall window are all stamped from it.
func WithClock(now func() time.Time) StoreOption {
	return func(s *FileStore) { s.now = now }
}

func NewFileStore(cfg Config, opts ...StoreOption) (*FileStore, error) {
	root, err := cfg.resolveRoot()
	if err != nil {
		return nil, fmt.Errorf("memory: resolve root: %w", err)
	}

	s := &FileStore{
		root:  root,
		now:   time.Now,
		locks: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, dir := range []string{root, filepath.Join(root, familyDir), filepath.Join(root, sessionsDir)} {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return nil, fmt.Errorf("memory: create %s: %w", dir, err)
		}
	}
	return s, nil
}

func MustNewFileStore(cfg Config, opts ...StoreOption) *FileStore {
	s, err := NewFileStore(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Root reports the resolved store directory.
func (s *FileStore) Root() string {
	return s.root
}

/* ----------------------- curated memory ----------------------- */

func (s *FileStore) LoadCurated(ctx context.Context) (string, error) {
	text, err := readOptional(filepath.Join(s.root, curatedFile))
	if err != nil {
		return "", fmt.Errorf("memory: read curated: %w", err)
	}
	return text, nil
}

func (s *FileStore) WriteCurated(ctx context.Context, text string) error {
	path := filepath.Join(s.root, curatedFile)
	lock := s.fileLock(path)
	lock.Lock()
	defer lock.Unlock()

	if err := writeAtomic(path, []byte(text)); err != nil {
		return fmt.Errorf("memory: write curated: %w", err)
	}
	return nil
}

/* ----------------------- family profiles ----------------------- */

func (s *FileStore) LoadProfile(ctx context.Context, personID string) (contractx.FamilyProfile, error) {
	id, err := normalizePersonID(personID)
	if err != nil {
		return contractx.FamilyProfile{}, err
	}

	// Two-slot lookup: the local document wins outright when it exists,
	// otherwise the base document is used. The two are never merged.
	local, ok, err := readProfileFile(s.profilePath(id, true))
	if err != nil {
		return contractx.FamilyProfile{}, fmt.Errorf("memory: read profile %s: %w", id, err)
	}
	if ok {
		return parseProfile(id, contractx.ProfileFromLocal, local), nil
	}

	base, ok, err := readProfileFile(s.profilePath(id, false))
	if err != nil {
		return contractx.FamilyProfile{}, fmt.Errorf("memory: read profile %s: %w", id, err)
	}
	if ok {
		return parseProfile(id, contractx.ProfileFromBase, base), nil
	}

	return contractx.FamilyProfile{PersonID: id}, nil
}

func (s *FileStore) LoadProfiles(ctx context.Context) ([]contractx.FamilyProfile, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, familyDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("memory: list profiles: %w", err)
	}

	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.Contains(name, ".tmp-") {
			continue
		}
		var id string
		switch {
		case strings.HasSuffix(name, localSuffix):
			id = strings.TrimSuffix(name, localSuffix)
		case strings.HasSuffix(name, baseSuffix):
			id = strings.TrimSuffix(name, baseSuffix)
		default:
			continue
		}
		if personIDPattern.MatchString(id) {
			seen[id] = true
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	profiles := make([]contractx.FamilyProfile, 0, len(ids))
	for _, id := range ids {
		profile, err := s.LoadProfile(ctx, id)
		if err != nil {
			return nil, err
		}
		if profile.Empty() {
			continue
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

func (s *FileStore) AppendProfileNote(ctx context.Context, personID string, note string) error {
	id, err := normalizePersonID(personID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(note) == "" {
		return fmt.Errorf("%w: profile note is empty", contractx.ErrValidation)
	}

	// Learned notes land in the shareable base document; a local override
	// stays purely human-curated.
	path := s.profilePath(id, false)
	lock := s.fileLock(path)
	lock.Lock()
	defer lock.Unlock()

	existing, err := readOptional(path)
	if err != nil {
		return fmt.Errorf("memory: read profile %s: %w", id, err)
	}
	if strings.TrimSpace(existing) == "" {
		existing = fmt.Sprintf("# %s\n", displayName(id))
	}

	block := fmt.Sprintf("\n### Learned %s\n\n%s\n", s.now().Format(dateLayout), strings.TrimSpace(note))
	if err := writeAtomic(path, []byte(existing+block)); err != nil {
		return fmt.Errorf("memory: append profile note %s: %w", id, err)
	}
	return nil
}

func (s *FileStore) profilePath(id string, local bool) string {
	suffix := baseSuffix
	if local {
		suffix = localSuffix
	}
	return filepath.Join(s.root, familyDir, id+suffix)
}

/* ----------------------- session logs ----------------------- */

func (s *FileStore) LoadSessions(ctx context.Context, daysBack int) ([]contractx.SessionSummary, error) {
	if daysBack <= 0 {
		return nil, nil
	}

	today := s.now()
	summaries := make([]contractx.SessionSummary, 0, daysBack)
	for i := 0; i < daysBack; i++ {
		date := today.AddDate(0, 0, -i).Format(dateLayout)
		raw, err := readOptional(s.sessionPath(date))
		if err != nil {
			return nil, fmt.Errorf("memory: read sessions %s: %w", date, err)
		}
		if strings.TrimSpace(raw) == "" {
			continue
		}
		summaries = append(summaries, contractx.SessionSummary{
			Date:   date,
			Blocks: splitSessionBlocks(raw),
		})
	}
	return summaries, nil
}

func (s *FileStore) AppendSession(ctx context.Context, date string, block string) error {
	if !datePattern.MatchString(date) {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	if strings.TrimSpace(block) == "" {
		return fmt.Errorf("%w: session block is empty", contractx.ErrValidation)
	}

	path := s.sessionPath(date)
	lock := s.fileLock(path)
	lock.Lock()
	defer lock.Unlock()

	existing, err := readOptional(path)
	if err != nil {
		return fmt.Errorf("memory: read sessions %s: %w", date, err)
	}

	entry := fmt.Sprintf("\n## Session — %s\n\n%s\n", s.now().Format(timeLayout), strings.TrimSpace(block))
	if err := writeAtomic(path, []byte(existing+entry)); err != nil {
		return fmt.Errorf("memory: append session %s: %w", date, err)
	}
	return nil
}

func (s *FileStore) sessionPath(date string) string {
	return filepath.Join(s.root, sessionsDir, date+baseSuffix)
}

// splitSessionBlocks cuts a dated log at its "## Session" headers. Text
// before the first header, such as hand-written notes, becomes its own
// block.
func splitSessionBlocks(raw string) []string {
	spans := sessionHeader.FindAllStringIndex(raw, -1)
	if len(spans) == 0 {
		if lead := strings.TrimSpace(raw); lead != "" {
			return []string{lead}
		}
		return nil
	}

	var blocks []string
	if lead := strings.TrimSpace(raw[:spans[0][0]]); lead != "" {
		blocks = append(blocks, lead)
	}
	for i, span := range spans {
		end := len(raw)
		if i+1 < len(spans) {
			end = spans[i+1][0]
		}
		if block := strings.TrimSpace(raw[span[0]:end]); block != "" {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

/* ----------------------- file plumbing ----------------------- */

// fileLock returns the mutex serializing writers of a single path.
func (s *FileStore) fileLock(path string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[path]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[path] = lock
	}
	return lock
}

// readOptional resolves a missing file to empty content, never an error.
func readOptional(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

// readProfileFile distinguishes "absent" from "present but empty" so slot
// resolution can honor an existing local file regardless of its content.
func readProfileFile(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

// writeAtomic stages content next to the target and renames it into place,
// so a concurrent reader never observes a partial write.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func normalizePersonID(personID string) (string, error) {
	id := strings.ToLower(strings.TrimSpace(personID))
	id = strings.ReplaceAll(id, " ", "-")
	if !personIDPattern.MatchString(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPersonID, personID)
	}
	return id, nil
}

func displayName(id string) string {
	words := strings.FieldsFunc(id, func(r rune) bool { return r == '-' || r == '_' })
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
