package secrets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileProvider reads secrets from one file per secret in a directory, the
// layout used by Kubernetes secret mounts. The file name is the secret name
// (e.g. <dir>/GOOGLE_API_KEY) and surrounding whitespace is trimmed.
//
// Files must have mode 0600 or 0400. With watching enabled, a change to a
// file drops that secret from the provider's cache and notifies listeners
// registered with OnChange.
type FileProvider struct {
	BasePath string
	Watch    bool

	mu        sync.RWMutex
	cache     map[string]string
	listeners []func(name string)
	watcher   *fsnotify.Watcher
	stopCh    chan struct{}
	done      chan struct{}
}

// NewFileProvider creates a file secret provider rooted at basePath.
func NewFileProvider(basePath string, watch bool) (*FileProvider, error) {
	info, err := os.Stat(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat secrets directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("secrets path is not a directory: %s", basePath)
	}

	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve secrets directory: %w", err)
	}

	p := &FileProvider{
		BasePath: abs,
		Watch:    watch,
		cache:    make(map[string]string),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}

	if !watch {
		close(p.done)
		slog.Debug("file secret provider started", "path", abs, "watch", false)
		return p, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(abs); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch secrets directory: %w", err)
	}

	p.watcher = watcher
	go p.watchLoop()

	slog.Debug("file secret provider started", "path", abs, "watch", true)
	return p, nil
}

// GetSecret reads the file named name.
func (p *FileProvider) GetSecret(ctx context.Context, name string) (string, error) {
	p.mu.RLock()
	value, ok := p.cache[name]
	p.mu.RUnlock()
	if ok {
		return value, nil
	}

	path, err := p.secretPath(name)
	if err != nil {
		return "", err
	}

	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s (no file in %s)", ErrNotFound, name, p.BasePath)
		}
		return "", fmt.Errorf("failed to stat secret file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("secret path is not a regular file: %s", name)
	}
	if mode := info.Mode().Perm(); mode != 0600 && mode != 0400 {
		return "", fmt.Errorf("insecure permissions on secret %s: %o (expected 0600 or 0400)", name, mode)
	}

	// #nosec G304 - path is confined to BasePath by secretPath
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file: %w", err)
	}

	value = strings.TrimSpace(string(data))
	if value == "" {
		return "", fmt.Errorf("%w: %s (file is empty)", ErrNotFound, name)
	}

	p.mu.Lock()
	p.cache[name] = value
	p.mu.Unlock()

	return value, nil
}

// secretPath maps name to a file directly inside BasePath.
func (p *FileProvider) secretPath(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid secret name %q: directory traversal detected", name)
	}

	path := filepath.Join(p.BasePath, name)
	if filepath.Dir(path) != p.BasePath {
		return "", fmt.Errorf("invalid secret name %q: directory traversal detected", name)
	}
	return path, nil
}

// ListSecrets returns the names of regular files in the directory.
func (p *FileProvider) ListSecrets(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(p.BasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && !strings.HasPrefix(entry.Name(), ".") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	return names, nil
}

// Provider returns "file".
func (p *FileProvider) Provider() string {
	return "file"
}

// Supports reports whether a regular file named name exists.
func (p *FileProvider) Supports(name string) bool {
	path, err := p.secretPath(name)
	if err != nil {
		return false
	}
	info, err := os.Lstat(path)
	return err == nil && info.Mode().IsRegular()
}

// OnChange registers fn to be called with the secret name whenever a watched
// file changes. Listeners run on the watcher goroutine.
func (p *FileProvider) OnChange(fn func(name string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Refresh forgets every loaded value.
func (p *FileProvider) Refresh(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cache = make(map[string]string)
	return nil
}

// Close stops the watcher. It is safe to call more than once.
func (p *FileProvider) Close() error {
	if p.watcher == nil {
		return nil
	}

	select {
	case <-p.stopCh:
		return nil
	default:
		close(p.stopCh)
	}

	err := p.watcher.Close()
	<-p.done
	return err
}

func (p *FileProvider) watchLoop() {
	defer close(p.done)

	for {
		select {
		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Chmod) == 0 {
				continue
			}
			p.invalidate(filepath.Base(event.Name), event.Op)

		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("secret file watcher error", "error", err)

		case <-p.stopCh:
			return
		}
	}
}

func (p *FileProvider) invalidate(name string, op fsnotify.Op) {
	p.mu.Lock()
	delete(p.cache, name)
	listeners := append([]func(string){}, p.listeners...)
	p.mu.Unlock()

	slog.Debug("secret file changed", "name", redactSecretName(name), "op", op.String())

	for _, fn := range listeners {
		fn(name)
	}
}
