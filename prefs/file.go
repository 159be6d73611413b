package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
)

// ErrInvalidText is returned by FileStore.PutString for a namespace, key or
// value that is not valid UTF-8. TOML cannot hold such text, and writing it
// would leave the whole file unreadable.
var ErrInvalidText = errors.New("preferences text is not valid UTF-8")

// FileStore is a Store persisted as a single TOML document with one table per
// namespace. Every PutString rewrites the file through a synced temp file and
// an atomic rename.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store at path. The file is created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) GetString(namespace, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := doc[namespace][key]
	return v, ok, nil
}

func (f *FileStore) PutString(namespace, key, value string) error {
	for _, s := range []string{namespace, key, value} {
		if !utf8.ValidString(s) {
			return fmt.Errorf("%w: %q", ErrInvalidText, s)
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return err
	}
	ns, ok := doc[namespace]
	if !ok {
		ns = make(map[string]string)
		doc[namespace] = ns
	}
	ns[key] = value
	return f.commit(doc)
}

func (f *FileStore) load() (map[string]map[string]string, error) {
	doc := make(map[string]map[string]string)
	_, err := toml.DecodeFile(f.path, &doc)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences %s: %w", f.path, err)
	}
	return doc, nil
}

// commit writes doc to a temp file, syncs it, renames it over the store and
// syncs the directory so the rename itself is durable.
func (f *FileStore) commit(doc map[string]map[string]string) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := toml.NewEncoder(tmp).Encode(doc); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close preferences: %w", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		return fmt.Errorf("failed to set preferences permissions: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("failed to commit preferences: %w", err)
	}
	return syncDir(dir)
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("failed to open preferences directory: %w", err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil && !dirSyncUnsupported(err) {
		return fmt.Errorf("failed to sync preferences directory: %w", err)
	}
	return nil
}

// dirSyncUnsupported reports whether err means the platform or filesystem
// cannot fsync a directory.
func dirSyncUnsupported(err error) bool {
	return errors.Is(err, errors.ErrUnsupported) ||
		errors.Is(err, syscall.EINVAL) ||
		(runtime.GOOS == "windows" && errors.Is(err, fs.ErrPermission))
}
