package docstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/starford/lectern/internal/apperr"
	"github.com/starford/lectern/internal/checksum"
	"github.com/starford/lectern/internal/models"
)

const recordExt = ".yaml"

// FS is a Store keeping one YAML file per record under <root>/<kind>/<id>.yaml.
type FS struct {
	root string // absolute path to the data directory

	mu      sync.Mutex
	written map[string][]string // rel path -> checksums of our recent writes, "" for a delete

	notes    *fsCollection[models.Note]
	lectures *fsCollection[models.Lecture]
	tags     *fsCollection[models.Tag]
}

// NewFS creates a file-backed store rooted at the given directory.
// The directory must already exist; kind subdirectories are created.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("docstore: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("docstore: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("docstore: root is not a directory: %s", abs)
	}
	for _, k := range []models.Kind{models.KindNote, models.KindLecture, models.KindTag} {
		if err := os.MkdirAll(filepath.Join(abs, string(k)), 0o755); err != nil {
			return nil, fmt.Errorf("docstore: mkdir %s: %w", k, err)
		}
	}
	f := &FS{root: abs, written: make(map[string][]string)}
	f.notes = &fsCollection[models.Note]{fs: f}
	f.lectures = &fsCollection[models.Lecture]{fs: f}
	f.tags = &fsCollection[models.Tag]{fs: f}
	return f, nil
}

func (f *FS) Notes() Collection[models.Note]       { return f.notes }
func (f *FS) Lectures() Collection[models.Lecture] { return f.lectures }
func (f *FS) Tags() Collection[models.Tag]         { return f.tags }

// Close is a no-op; files need no teardown.
func (f *FS) Close() error { return nil }

// Root returns the absolute data directory.
func (f *FS) Root() string { return f.root }

// recordPath returns the path of a record relative to root. Identifiers
// containing separators or traversal are rejected.
func recordPath(kind models.Kind, id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("docstore: empty id: %w", apperr.ErrInvalid)
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") || filepath.Clean(id) != id {
		return "", fmt.Errorf("docstore: invalid id %q: %w", id, apperr.ErrInvalid)
	}
	return path.Join(string(kind), id+recordExt), nil
}

// safePath resolves rel against root and rejects results that escape it.
func (f *FS) safePath(rel string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("docstore: absolute paths not allowed: %s", rel)
	}
	abs := filepath.Join(f.root, cleaned)
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("docstore: path escapes root: %s", rel)
	}
	return abs, nil
}

// write atomically writes content: tmp file -> fsync -> rename.
func (f *FS) write(rel string, content []byte) error {
	abs, err := f.safePath(rel)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	tmp, err := os.CreateTemp(dir, ".lectern-tmp-*")
	if err != nil {
		return fmt.Errorf("docstore: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("docstore: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("docstore: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("docstore: close temp: %w", err)
	}
	f.remember(rel, checksum.Sum(content))
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("docstore: rename: %w", err)
	}
	success = true
	return nil
}

func (f *FS) remove(rel string) error {
	abs, err := f.safePath(rel)
	if err != nil {
		return err
	}
	f.remember(rel, "")
	if err := os.Remove(abs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("docstore: delete %s: %w", rel, apperr.ErrNotFound)
		}
		return fmt.Errorf("docstore: delete %s: %w", rel, err)
	}
	return nil
}

// recentWrites bounds the per-file history used to recognise our own events.
const recentWrites = 8

func (f *FS) remember(rel, sum string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h := append(f.written[rel], sum)
	if len(h) > recentWrites {
		h = h[len(h)-recentWrites:]
	}
	f.written[rel] = h
}

// ownChange reports whether rel's observed state (sum, or "" when the file
// is gone) is one this store recently produced.
func (f *FS) ownChange(rel, sum string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.written[rel] {
		if s == sum {
			return true
		}
	}
	return false
}

type fsCollection[T models.Record[T]] struct {
	fs *FS
}

func (c *fsCollection[T]) kind() models.Kind { return models.KindOf[T]() }

func (c *fsCollection[T]) Create(ctx context.Context, rec T) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	rel, err := recordPath(c.kind(), id)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(rec.WithIdentifier(id))
	if err != nil {
		return "", fmt.Errorf("docstore: encode %s: %w", c.kind(), err)
	}
	if err := c.fs.write(rel, data); err != nil {
		return "", err
	}
	return id, nil
}

func (c *fsCollection[T]) Update(ctx context.Context, id string, rec T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, err := recordPath(c.kind(), id)
	if err != nil {
		return err
	}
	abs, err := c.fs.safePath(rel)
	if err != nil {
		return err
	}
	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("docstore: update %s %s: %w", c.kind(), id, apperr.ErrNotFound)
		}
		return fmt.Errorf("docstore: stat %s: %w", rel, err)
	}
	data, err := yaml.Marshal(rec.WithIdentifier(id))
	if err != nil {
		return fmt.Errorf("docstore: encode %s: %w", c.kind(), err)
	}
	return c.fs.write(rel, data)
}

func (c *fsCollection[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, err := recordPath(c.kind(), id)
	if err != nil {
		return err
	}
	return c.fs.remove(rel)
}

// List decodes every record file of the collection, ordered by file name.
func (c *fsCollection[T]) List(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matches, err := doublestar.Glob(os.DirFS(c.fs.root), string(c.kind())+"/*"+recordExt)
	if err != nil {
		return nil, fmt.Errorf("docstore: list %s: %w", c.kind(), err)
	}
	out := make([]T, 0, len(matches))
	for _, rel := range matches {
		data, err := fs.ReadFile(os.DirFS(c.fs.root), rel)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("docstore: read %s: %w", rel, err)
		}
		var rec T
		if err := yaml.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("docstore: decode %s: %w", rel, err)
		}
		id := strings.TrimSuffix(path.Base(rel), recordExt)
		out = append(out, rec.WithIdentifier(id))
	}
	return out, nil
}
