// Package chatlog keeps one append-only text file of rendered lines per
// (server, destination) pair.
package chatlog

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spaolacci/murmur3"
)

const (
	hashSeed    = 0x1337
	fileFormat  = ".IRC_%d.log"
	filePattern = ".IRC_*.log"
	separator   = "-------- PREVIOUS LOG [%02d/%02d] --------\n"
)

// Identifier hashes "server:destination" into the id embedded in the file
// name. The key ends with a NUL byte so names match existing log files.
func Identifier(server, destination string) uint32 {
	key := make([]byte, 0, len(server)+len(destination)+2)
	key = append(key, server...)
	key = append(key, ':')
	key = append(key, destination...)
	key = append(key, 0)
	return murmur3.Sum32WithSeed(key, hashSeed)
}

// FileName returns the log file name for an identifier.
func FileName(id uint32) string {
	return fmt.Sprintf(fileFormat, id)
}

// Manager reads and writes the logs of one server.
// Files are opened and closed on every call; no handle outlives an operation.
type Manager struct {
	dir    string
	server string
	now    func() time.Time
}

// New builds a manager storing logs for server under dir.
func New(dir, server string) *Manager {
	if dir == "" {
		dir = "."
	}
	return &Manager{dir: dir, server: server, now: time.Now}
}

// Dir returns the directory holding the log files.
func (m *Manager) Dir() string { return m.dir }

// Identifier returns the log id of destination on this server.
func (m *Manager) Identifier(destination string) uint32 {
	return Identifier(m.server, destination)
}

// Path returns the log file path of destination.
func (m *Manager) Path(destination string) string {
	return filepath.Join(m.dir, FileName(m.Identifier(destination)))
}

// Append writes line, newline-terminated, to the destination's log.
func (m *Manager) Append(destination, line string) error {
	path := m.Path(destination)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open log %s: %w", path, err)
	}
	if _, err := io.WriteString(f, line+"\n"); err != nil {
		f.Close()
		return fmt.Errorf("write log %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close log %s: %w", path, err)
	}
	return nil
}

// Replay copies the destination's log to w byte for byte.
// A destination without a log replays nothing.
func (m *Manager) Replay(destination string, w io.Writer) error {
	path := m.Path(destination)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open log %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("replay log %s: %w", path, err)
	}
	return nil
}

// Files lists every log file in the directory, whatever server wrote it.
func (m *Manager) Files() ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(m.dir, filePattern))
	if err != nil {
		return nil, fmt.Errorf("glob logs: %w", err)
	}
	return paths, nil
}

// Cleanup ends a session. Without keep every log file is removed; with keep
// each one gets a dated separator so the next session can tell old history
// from new. It returns the number of files handled.
func (m *Manager) Cleanup(keep bool) (int, error) {
	paths, err := m.Files()
	if err != nil {
		return 0, err
	}

	now := m.now()
	var errs []error
	handled := 0
	for _, path := range paths {
		if !keep {
			if err := os.Remove(path); err != nil {
				errs = append(errs, fmt.Errorf("remove log %s: %w", path, err))
				continue
			}
			handled++
			continue
		}
		if err := appendSeparator(path, now); err != nil {
			errs = append(errs, err)
			continue
		}
		handled++
	}
	return handled, errors.Join(errs...)
}

func appendSeparator(path string, now time.Time) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open log %s: %w", path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, separator, int(now.Month()), now.Day()); err != nil {
		return fmt.Errorf("write separator %s: %w", path, err)
	}
	return nil
}
