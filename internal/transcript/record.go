// Package transcript implements durable storage for chat sessions.
// Each session is a single JSON record under the history directory, written
// through on every mutation; a SQLite index mirrors the records for search.
package transcript

import (
	"fmt"
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one immutable transcript entry. Ordering is append-only;
// insertion order is canonical.
type Message struct {
	Timestamp     time.Time `json:"timestamp"`
	Role          Role      `json:"role"`
	Content       string    `json:"content"`
	HasAttachment bool      `json:"has_attachment"`
}

// Metadata is the record header. MessageCount is derived and must equal
// len(messages) after every successful persist.
type Metadata struct {
	Created      time.Time `json:"created"`
	Model        string    `json:"model"`
	MessageCount int       `json:"message_count"`
}

// Record is the on-disk form of one session.
type Record struct {
	Metadata Metadata  `json:"metadata"`
	Messages []Message `json:"messages"`
}

// Validate checks that a loaded record has the expected shape. A stale
// message_count is tolerated (the writer may have crashed mid-write), but
// malformed roles are not.
func (r *Record) Validate() error {
	for i, msg := range r.Messages {
		switch msg.Role {
		case RoleUser, RoleAssistant, RoleSystem:
		default:
			return fmt.Errorf("message %d: unknown role %q", i, msg.Role)
		}
	}
	return nil
}

// Session is the live, in-memory form of one conversation. It is owned
// exclusively by the chat loop for the lifetime of the process.
type Session struct {
	ID       string
	Path     string
	Created  time.Time
	Model    string
	Messages []Message
}

// Record converts the session to its on-disk form.
func (s *Session) Record() Record {
	return Record{
		Metadata: Metadata{
			Created:      s.Created,
			Model:        s.Model,
			MessageCount: len(s.Messages),
		},
		Messages: s.Messages,
	}
}

// SessionSummary describes one persisted record for listing.
type SessionSummary struct {
	ID           string
	Path         string
	Created      time.Time
	Model        string
	MessageCount int
}
