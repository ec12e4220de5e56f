// Package permission holds the allow-list of users who may see invoices.
//
// The list is a plain text file, one username per line, compared
// case-insensitively. It is re-read whenever the file changes so access can
// be granted or revoked without restarting the dashboard.
package permission

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// AllowList is a hot-reloaded set of usernames.
type AllowList struct {
	path   string
	logger *zerolog.Logger

	mu    sync.RWMutex
	users map[string]struct{}

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

func NewAllowList(path string, logger *zerolog.Logger) *AllowList {
	return &AllowList{
		path:   path,
		logger: logger,
		users:  map[string]struct{}{},
	}
}

// Load reads the file. A missing or unreadable file leaves nobody allowed.
func (a *AllowList) Load() error {
	users, err := readUsers(a.path)

	a.mu.Lock()
	a.users = users
	a.mu.Unlock()

	if err != nil {
		return err
	}
	a.logger.Info().Str("file", a.path).Int("users", len(users)).Msg("invoice allow-list loaded")
	return nil
}

// Allowed reports whether username is on the list.
func (a *AllowList) Allowed(username string) bool {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return false
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.users[username]
	return ok
}

// Len returns the number of allowed users.
func (a *AllowList) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.users)
}

// Start loads the file and watches its directory. Editors and deploy tools
// often replace files instead of writing them, so the directory is watched
// and events are filtered by file name.
func (a *AllowList) Start(ctx context.Context) error {
	if a.running {
		return nil
	}

	if err := a.Load(); err != nil {
		a.logger.Warn().Err(err).Str("file", a.path).Msg("invoice allow-list unavailable, nobody may see invoices")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	if err := watcher.Add(filepath.Dir(a.path)); err != nil {
		watcher.Close()
		return errors.Wrap(err, "watch allow-list directory")
	}

	a.watcher = watcher
	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	a.running = true

	go a.run(ctx)
	return nil
}

// Stop ends the watch loop and waits for it to exit.
func (a *AllowList) Stop() {
	if !a.running {
		return
	}
	a.running = false

	close(a.stopCh)
	<-a.doneCh

	if err := a.watcher.Close(); err != nil {
		a.logger.Error().Err(err).Msg("failed to close allow-list watcher")
	}
}

func (a *AllowList) run(ctx context.Context) {
	defer close(a.doneCh)

	target := filepath.Clean(a.path)
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.stopCh:
			return
		case event, ok := <-a.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := a.Load(); err != nil {
				a.logger.Warn().Err(err).Str("op", event.Op.String()).Msg("invoice allow-list reload failed")
			}
		case err, ok := <-a.watcher.Errors:
			if !ok {
				return
			}
			a.logger.Error().Err(err).Msg("allow-list watcher error")
		}
	}
}

func readUsers(path string) (map[string]struct{}, error) {
	users := map[string]struct{}{}

	f, err := os.Open(path)
	if err != nil {
		return users, errors.Wrap(err, "open allow-list")
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if line != "" {
			users[line] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return map[string]struct{}{}, errors.Wrap(err, "read allow-list")
	}
	return users, nil
}
