package transcript

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/N3E6X/The-Origami-Thought-Protocol/internal/logging"
)

// Index mirrors persisted records into SQLite for cross-session search.
// The JSON records stay canonical; the index is rebuilt row-by-row on
// every persist and can be deleted safely.
type Index struct {
	db *sql.DB
}

// SearchHit is one matching message from the index.
type SearchHit struct {
	SessionID string
	Seq       int
	Timestamp time.Time
	Role      Role
	Content   string
}

// OpenIndex opens (or creates) the index database at path.
func OpenIndex(path string) (*Index, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}

	idx := &Index{db: db}
	if err := idx.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

func (i *Index) migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			created TEXT NOT NULL,
			model TEXT,
			message_count INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			timestamp TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			has_attachment INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (session_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id)`,
	}
	for _, stmt := range schema {
		if _, err := i.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to migrate index schema: %w", err)
		}
	}
	return nil
}

// SyncSession upserts the session row and inserts any messages not yet
// indexed. Messages are immutable, so INSERT OR IGNORE by (session, seq)
// is sufficient.
func (i *Index) SyncSession(id string, rec Record) error {
	tx, err := i.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT OR REPLACE INTO sessions (id, created, model, message_count) VALUES (?, ?, ?, ?)`,
		id, rec.Metadata.Created.Format(time.RFC3339Nano), rec.Metadata.Model, rec.Metadata.MessageCount,
	)
	if err != nil {
		return err
	}

	for seq, msg := range rec.Messages {
		_, err = tx.Exec(
			`INSERT OR IGNORE INTO messages (session_id, seq, timestamp, role, content, has_attachment)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, seq, msg.Timestamp.Format(time.RFC3339Nano), string(msg.Role), msg.Content, msg.HasAttachment,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeleteSession removes a session and its messages from the index.
func (i *Index) DeleteSession(id string) error {
	tx, err := i.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM messages WHERE session_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// Search returns messages containing term, newest session first.
func (i *Index) Search(term string, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := i.db.Query(
		`SELECT session_id, seq, timestamp, role, content
		 FROM messages
		 WHERE content LIKE '%' || ? || '%'
		 ORDER BY session_id DESC, seq ASC
		 LIMIT ?`,
		term, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var hit SearchHit
		var ts, role string
		if err := rows.Scan(&hit.SessionID, &hit.Seq, &ts, &role, &hit.Content); err != nil {
			return nil, err
		}
		hit.Role = Role(role)
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			hit.Timestamp = parsed
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// Close closes the index database.
func (i *Index) Close() error {
	return i.db.Close()
}
