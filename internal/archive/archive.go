// Package archive keeps an append-only JSON Lines copy of every
// synthesized question. The file is a fallback record and is never read
// back by the application.
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/abhisek/quizstreak/internal/quiz"
)

// Entry is one archived line.
type Entry struct {
	ArchivedAt      time.Time     `json:"archived_at"`
	ID              string        `json:"id"`
	SourceReference string        `json:"source_reference,omitempty"`
	Prompt          string        `json:"prompt"`
	QuestionText    string        `json:"question"`
	Options         []quiz.Option `json:"options"`
	Explanation     string        `json:"explanation"`
	CreatedAt       time.Time     `json:"created_at"`
}

// Log appends entries to a file. It is safe for concurrent use.
type Log struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// New returns a Log writing to path. The file and its directory are
// created on first append.
func New(path string) *Log {
	return &Log{path: path, now: time.Now}
}

// Path returns the archive file path.
func (l *Log) Path() string {
	return l.path
}

// Append writes q as one JSON line.
func (l *Log) Append(q *quiz.Question) error {
	line, err := json.Marshal(Entry{
		ArchivedAt:      l.now().UTC(),
		ID:              q.ID,
		SourceReference: q.SourceReference,
		Prompt:          q.Prompt,
		QuestionText:    q.QuestionText,
		Options:         q.Options,
		Explanation:     q.Explanation,
		CreatedAt:       q.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal archive entry: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("write archive: %w", err)
	}
	return f.Close()
}
