package docstore

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/lectern/internal/apperr"
	"github.com/starford/lectern/internal/models"
)

func tempStore(t *testing.T) *FS {
	t.Helper()
	s, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return s
}

func TestFS_RecordLayout(t *testing.T) {
	s := tempStore(t)
	id, err := s.Tags().Create(context.Background(), models.Tag{Name: "golang"})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(s.Root(), "tags", id+".yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: golang")
}

func TestFS_NoTempLeftovers(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	id, err := s.Notes().Create(ctx, sampleNote("atomic"))
	require.NoError(t, err)
	require.NoError(t, s.Notes().Update(ctx, id, sampleNote("atomic 2")))

	entries, err := os.ReadDir(filepath.Join(s.Root(), "notes"))
	require.NoError(t, err)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".lectern-tmp-") {
			t.Errorf("leftover temp file: %s", e.Name())
		}
	}
	assert.Len(t, entries, 1)
}

func TestFS_TraversalRejected(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	for _, id := range []string{"../escape", "a/b", `a\b`, ".."} {
		err := s.Notes().Update(ctx, id, sampleNote("x"))
		assert.ErrorIs(t, err, apperr.ErrInvalid, "update %q", id)
		err = s.Notes().Delete(ctx, id)
		assert.ErrorIs(t, err, apperr.ErrInvalid, "delete %q", id)
	}
}

func TestFS_ListsExternalFiles(t *testing.T) {
	s := tempStore(t)
	content := "name: handwritten\n"
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "tags", "manual.yaml"), []byte(content), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "tags", "ignored.txt"), []byte("x"), 0o644))

	tags, err := s.Tags().List(context.Background())
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "manual", tags[0].ID)
	assert.Equal(t, "handwritten", tags[0].Name)
}

func TestFS_ListRejectsCorruptRecord(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "tags", "bad.yaml"), []byte("name: [unclosed"), 0o644))

	_, err := s.Tags().List(context.Background())
	assert.Error(t, err)
}

func TestNewFS_NonexistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Error("expected error for nonexistent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	_ = os.WriteFile(f, []byte("x"), 0o644)
	_, err := NewFS(f)
	if err == nil {
		t.Error("expected error when root is a file")
	}
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

type changeLog struct {
	mu      sync.Mutex
	changes []Change
}

func (c *changeLog) add(ch Change) {
	c.mu.Lock()
	c.changes = append(c.changes, ch)
	c.mu.Unlock()
}

func (c *changeLog) snapshot() []Change {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Change(nil), c.changes...)
}

func startWatch(t *testing.T, s *FS) *changeLog {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	log := &changeLog{}
	go s.WatchWith(ctx, log.add,
		WithDebounce(50*time.Millisecond),
		WithWatchLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	time.Sleep(100 * time.Millisecond)
	return log
}

func TestWatch_ExternalWriteReported(t *testing.T) {
	s := tempStore(t)
	log := startWatch(t, s)

	_ = os.WriteFile(filepath.Join(s.Root(), "notes", "ext.yaml"), []byte("title: outside\n"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		for _, ch := range log.snapshot() {
			if ch.Kind == models.KindNote && ch.ID == "ext" {
				return true
			}
		}
		return false
	}, "external write not reported")
}

func TestWatch_ExternalDeleteReported(t *testing.T) {
	s := tempStore(t)
	path := filepath.Join(s.Root(), "tags", "gone.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: gone\n"), 0o644))
	log := startWatch(t, s)

	require.NoError(t, os.Remove(path))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		for _, ch := range log.snapshot() {
			if ch.Kind == models.KindTag && ch.ID == "gone" {
				return true
			}
		}
		return false
	}, "external delete not reported")
}

func TestWatch_OwnWritesIgnored(t *testing.T) {
	s := tempStore(t)
	log := startWatch(t, s)
	ctx := context.Background()

	id, err := s.Notes().Create(ctx, sampleNote("mine"))
	require.NoError(t, err)
	require.NoError(t, s.Notes().Update(ctx, id, sampleNote("mine again")))
	require.NoError(t, s.Notes().Delete(ctx, id))

	time.Sleep(500 * time.Millisecond)
	assert.Empty(t, log.snapshot())
}

func TestWatch_BurstCoalesced(t *testing.T) {
	s := tempStore(t)
	log := startWatch(t, s)

	for _, name := range []string{"a", "b", "c"} {
		_ = os.WriteFile(filepath.Join(s.Root(), "tags", name+".yaml"), []byte("name: "+name+"\n"), 0o644)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		for _, ch := range log.snapshot() {
			if ch.Kind == models.KindTag && ch.ID == "" {
				return true
			}
		}
		return false
	}, "burst not coalesced into a kind-wide change")
}

func TestWatch_StopsOnCancel(t *testing.T) {
	s := tempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx, func(Change) {}) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
