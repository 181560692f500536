package archive

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizstreak/internal/quiz"
)

func question(t *testing.T, id string) *quiz.Question {
	t.Helper()
	opts, err := quiz.NewOptions([]string{"a", "b", "c", "d"}, 2)
	require.NoError(t, err)
	return &quiz.Question{
		ID:           id,
		Prompt:       "prompt",
		QuestionText: "stem",
		Options:      opts,
		Explanation:  "because",
	}
}

func readLines(t *testing.T, path string) []Entry {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		out = append(out, e)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestAppend_CreatesFileAndDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "questions.jsonl")
	l := New(path)
	l.now = func() time.Time { return time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC) }

	require.NoError(t, l.Append(question(t, "q1")))
	require.NoError(t, l.Append(question(t, "q2")))

	entries := readLines(t, path)
	require.Len(t, entries, 2)
	assert.Equal(t, "q1", entries[0].ID)
	assert.Equal(t, "q2", entries[1].ID)
	assert.Equal(t, "C", entries[0].Options[2].Label)
	assert.True(t, entries[0].Options[2].IsCorrect)
	assert.Equal(t, time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC), entries[0].ArchivedAt)
}

func TestAppend_KeepsExistingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.jsonl")
	existing := `{"id":"old"}` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(existing), 0o644))

	require.NoError(t, New(path).Append(question(t, "new")))

	entries := readLines(t, path)
	require.Len(t, entries, 2)
	assert.Equal(t, "old", entries[0].ID)
	assert.Equal(t, "new", entries[1].ID)
}

func TestAppend_Concurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.jsonl")
	l := New(path)

	var wg sync.WaitGroup
	for i := range 20 {
		q := question(t, fmt.Sprintf("q%d", i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Append(q))
		}()
	}
	wg.Wait()

	assert.Len(t, readLines(t, path), 20)
}

func TestAppend_UnwritablePath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	err := New(filepath.Join(blocker, "questions.jsonl")).Append(question(t, "q"))
	assert.Error(t, err)
}
