// Package audit keeps the append-only log of mutating management actions.
package audit

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// TimeLayout is the UTC timestamp written at the start of every line.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// DefaultRecent is how many lines the audit view returns.
const DefaultRecent = 100

// Action and status values written by the management service.
const (
	ActionUpdate   = "UPDATE"
	ActionClone    = "CLONE"
	ActionKillPort = "KILL_PORT"

	StatusStarted = "INICIANDO"
	StatusInfo    = "INFO"
	StatusError   = "ERRO"
	StatusSuccess = "SUCESSO"
)

// Entry is one audited action.
type Entry struct {
	Time    time.Time
	Action  string
	Target  string
	Status  string
	Details string
}

// String renders the entry in the log line format, without the newline.
func (e Entry) String() string {
	return fmt.Sprintf("[%s] ACTION: %s | TARGET: %s | STATUS: %s | %s",
		e.Time.UTC().Format(TimeLayout), e.Action, e.Target, e.Status, oneLine(e.Details))
}

// Log appends entries to a file. Appends are serialised so concurrent
// requests never interleave partial lines.
type Log struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

func New(path string) *Log {
	return &Log{path: path, now: time.Now}
}

// Path returns the file the log writes to.
func (l *Log) Path() string {
	return l.path
}

// Append writes one entry.
func (l *Log) Append(action, target, status, details string) error {
	entry := Entry{
		Time:    l.now(),
		Action:  action,
		Target:  target,
		Status:  status,
		Details: details,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create audit directory")
		}
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "open audit log")
	}
	defer f.Close()

	if _, err := f.WriteString(entry.String() + "\n"); err != nil {
		return errors.Wrap(err, "write audit log")
	}
	return nil
}

// Recent returns up to n non-empty lines, newest first. A missing file is
// an empty log.
func (l *Log) Recent(n int) ([]string, error) {
	if n <= 0 {
		n = DefaultRecent
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "open audit log")
	}
	defer f.Close()

	// ring buffer of the last n lines
	ring := make([]string, 0, n)
	start := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(ring) < n {
			ring = append(ring, line)
			continue
		}
		ring[start] = line
		start = (start + 1) % n
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read audit log")
	}

	out := make([]string, len(ring))
	for i := range ring {
		out[i] = ring[(start+len(ring)-1-i)%len(ring)]
	}
	return out, nil
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
