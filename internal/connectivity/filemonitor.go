package connectivity

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileMonitor feeds a Monitor from a state file maintained by the host
// platform's network manager. The file contains "online" or "offline"
// (first line, case-insensitive; "1"/"0" are accepted too). A missing
// file reads as offline.
//
// fsnotify watches the file's parent directory so atomic
// write-rename-replace by the host still produces events.
type FileMonitor struct {
	*Monitor

	path    string
	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewFileMonitor creates a FileMonitor for the given state file.
// The initial state is read immediately; Start begins watching.
func NewFileMonitor(path string) (*FileMonitor, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve state file path: %w", err)
	}

	fm := &FileMonitor{
		Monitor: NewMonitor(readStateFile(abs)),
		path:    abs,
		done:    make(chan struct{}),
	}

	return fm, nil
}

// Start begins watching the state file for changes.
func (fm *FileMonitor) Start() error {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	if fm.running {
		return fmt.Errorf("file monitor already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(fm.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch state directory: %w", err)
	}

	fm.watcher = watcher
	fm.running = true
	fm.wg.Add(1)
	go fm.processEvents()

	return nil
}

// Stop stops watching and cleans up resources. It blocks until the
// event loop has exited.
func (fm *FileMonitor) Stop() error {
	fm.mu.Lock()
	if !fm.running {
		fm.mu.Unlock()
		return nil
	}
	fm.running = false
	fm.mu.Unlock()

	close(fm.done)

	if err := fm.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	fm.wg.Wait()
	return nil
}

// processEvents is the event loop converting file changes into
// connectivity transitions.
func (fm *FileMonitor) processEvents() {
	defer fm.wg.Done()

	for {
		select {
		case <-fm.done:
			return

		case event, ok := <-fm.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != fm.path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			fm.Set(readStateFile(fm.path))

		case _, ok := <-fm.watcher.Errors:
			if !ok {
				return
			}
			// Watcher errors are transient; keep the last known state.
		}
	}
}

// readStateFile reads the current state from the file.
func readStateFile(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}

	line := strings.ToLower(strings.TrimSpace(strings.SplitN(string(data), "\n", 2)[0]))
	switch line {
	case "online", "1", "true", "up":
		return true
	default:
		return false
	}
}
