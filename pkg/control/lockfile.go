package control

import (
	"fmt"
	"os"
	"path/filepath"
)

// Lockfile enforces single-instance operation: at startup it atomically
// creates <dir>/sonar-lock.<hostname> containing its own pid; if the file
// already exists, Acquire returns ErrAlreadyLocked and the caller logs
// "Lockfile present, exiting" and returns without producing any data.
// The controller is the only owner: it alone creates or removes the file.
type Lockfile struct {
	path string
	held bool
}

// ErrAlreadyLocked is returned by Acquire when another instance already
// holds the lock.
var ErrAlreadyLocked = fmt.Errorf("Lockfile present, exiting")

func NewLockfile(dir, hostname string) *Lockfile {
	return &Lockfile{path: filepath.Join(dir, "sonar-lock."+hostname)}
}

// Acquire atomically creates the lockfile with this process's pid. It
// fails with ErrAlreadyLocked if the file already exists.
func (l *Lockfile) Acquire() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return ErrAlreadyLocked
		}
		return fmt.Errorf("control: create lockfile %s: %w", l.path, err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		return fmt.Errorf("control: write lockfile %s: %w", l.path, err)
	}
	l.held = true
	return nil
}

// Release removes the lockfile if this instance holds it. Called on normal
// shutdown and on any signal-initiated shutdown.
func (l *Lockfile) Release() error {
	if !l.held {
		return nil
	}
	l.held = false
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("control: remove lockfile %s: %w", l.path, err)
	}
	return nil
}
