package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/N3E6X/The-Origami-Thought-Protocol/internal/logging"
)

const (
	recordPrefix = "chat_"
	recordSuffix = ".json"
	stampLayout  = "20060102_150405"
)

// Store persists session records as JSON files in a single directory and
// mirrors them into a SQLite index for search. It is owned by one control
// loop; methods are not safe for concurrent use.
type Store struct {
	dir   string
	index *Index

	lastStamp string
	seq       int
}

// Open prepares a store rooted at dir, creating it if needed. The SQLite
// index is optional: if it cannot be opened the store degrades to
// JSON-only persistence with a logged warning.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	s := &Store{dir: dir}

	idx, err := OpenIndex(filepath.Join(dir, "index.db"))
	if err != nil {
		logging.StoreWarn("Search index unavailable, continuing without it: %v", err)
	} else {
		s.index = idx
	}

	logging.Store("Transcript store opened at %s (index=%v)", dir, s.index != nil)
	return s, nil
}

// Close releases the search index, if any.
func (s *Store) Close() error {
	if s.index != nil {
		return s.index.Close()
	}
	return nil
}

// Dir returns the history directory.
func (s *Store) Dir() string { return s.dir }

// newSessionID derives an identifier from the current time. Same-second
// collisions within one process run get a numeric suffix.
func (s *Store) newSessionID(now time.Time) string {
	stamp := now.Format(stampLayout)
	if stamp == s.lastStamp {
		s.seq++
		return fmt.Sprintf("%s_%02d", stamp, s.seq)
	}
	s.lastStamp = stamp
	s.seq = 0
	return stamp
}

// Create allocates a new session with an empty message list and persists
// the initial record immediately. A persist failure is reported but the
// session is still returned; the caller continues in memory.
func (s *Store) Create(model string) (*Session, error) {
	now := time.Now()
	id := s.newSessionID(now)

	sess := &Session{
		ID:      id,
		Path:    filepath.Join(s.dir, recordPrefix+id+recordSuffix),
		Created: now,
		Model:   model,
	}

	logging.Store("Created session %s (model=%s)", id, model)
	return sess, s.persist(sess)
}

// Append adds a message to the session and writes the full record through
// to disk. The in-memory session is updated even when the write fails; the
// returned *PersistError is a warning, not a loss of the message.
func (s *Store) Append(sess *Session, role Role, content string, hasAttachment bool) error {
	sess.Messages = append(sess.Messages, Message{
		Timestamp:     time.Now(),
		Role:          role,
		Content:       content,
		HasAttachment: hasAttachment,
	})
	logging.StoreDebug("Appended %s message to %s (count=%d)", role, sess.ID, len(sess.Messages))
	return s.persist(sess)
}

// SetModel updates the session's model and persists.
func (s *Store) SetModel(sess *Session, model string) error {
	sess.Model = model
	return s.persist(sess)
}

// persist writes the full record and refreshes the search index.
func (s *Store) persist(sess *Session) error {
	rec := sess.Record()
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return &PersistError{Path: sess.Path, Op: "encode", Err: err}
	}
	if err := os.WriteFile(sess.Path, data, 0644); err != nil {
		logging.StoreError("Failed to write %s: %v", sess.Path, err)
		return &PersistError{Path: sess.Path, Op: "write", Err: err}
	}

	// Index failures are warnings only; the JSON record is canonical.
	if s.index != nil {
		if err := s.index.SyncSession(sess.ID, rec); err != nil {
			logging.StoreWarn("Failed to sync session %s to index: %v", sess.ID, err)
		}
	}
	return nil
}

// List enumerates persisted records newest-first by filename-encoded
// timestamp. Unreadable or corrupt files are skipped with a logged
// warning.
func (s *Store) List() ([]SessionSummary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, recordPrefix) || !strings.HasSuffix(name, recordSuffix) {
			continue
		}
		names = append(names, name)
	}
	// Filenames encode the creation timestamp, so lexical descending order
	// is newest-first.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	summaries := make([]SessionSummary, 0, len(names))
	for _, name := range names {
		path := filepath.Join(s.dir, name)
		rec, err := s.Load(path)
		if err != nil {
			logging.StoreWarn("Skipping unreadable record %s: %v", name, err)
			continue
		}
		summaries = append(summaries, SessionSummary{
			ID:           strings.TrimSuffix(strings.TrimPrefix(name, recordPrefix), recordSuffix),
			Path:         path,
			Created:      rec.Metadata.Created,
			Model:        rec.Metadata.Model,
			MessageCount: rec.Metadata.MessageCount,
		})
	}
	return summaries, nil
}

// Load deserializes one record by path. Returns ErrNotFound when the file
// is missing and *CorruptRecordError when it does not parse or validate.
func (s *Store) Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &CorruptRecordError{Path: path, Err: err}
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, &CorruptRecordError{Path: path, Err: err}
	}
	if err := rec.Validate(); err != nil {
		return nil, &CorruptRecordError{Path: path, Err: err}
	}
	return &rec, nil
}

// Delete removes one persisted record. Returns success/failure and never
// propagates an error to the caller.
func (s *Store) Delete(path string) bool {
	if err := os.Remove(path); err != nil {
		logging.StoreError("Failed to delete %s: %v", path, err)
		return false
	}
	if s.index != nil {
		name := filepath.Base(path)
		id := strings.TrimSuffix(strings.TrimPrefix(name, recordPrefix), recordSuffix)
		if err := s.index.DeleteSession(id); err != nil {
			logging.StoreWarn("Failed to remove session %s from index: %v", id, err)
		}
	}
	logging.Store("Deleted record %s", path)
	return true
}

// DeleteAll removes every persisted record and reports how many were
// deleted.
func (s *Store) DeleteAll() int {
	summaries, err := s.List()
	if err != nil {
		logging.StoreError("Failed to list records for delete-all: %v", err)
		return 0
	}
	deleted := 0
	for _, sum := range summaries {
		if s.Delete(sum.Path) {
			deleted++
		}
	}
	return deleted
}

// Search queries the SQLite index for messages containing the term across
// all sessions. Returns nil when the index is unavailable.
func (s *Store) Search(term string, limit int) ([]SearchHit, error) {
	if s.index == nil {
		return nil, fmt.Errorf("search index unavailable")
	}
	return s.index.Search(term, limit)
}
