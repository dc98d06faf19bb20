package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DirectorySink appends each record to <root>/YYYY/MM/DD/0+<tag>-<key>.json,
// creating directories as needed. Errors on directory creation or file
// append are reported on Errors and the record is dropped.
type DirectorySink struct {
	root string
	mu   sync.Mutex

	Errors chan error
}

func NewDirectorySink(root string) *DirectorySink {
	return &DirectorySink{root: root, Errors: make(chan error, 16)}
}

func (d *DirectorySink) Post(rec Record) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	dir := filepath.Join(d.root,
		fmt.Sprintf("%04d", rec.Timestamp.Year()),
		fmt.Sprintf("%02d", rec.Timestamp.Month()),
		fmt.Sprintf("%02d", rec.Timestamp.Day()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		d.reportDrop(err)
		return err
	}

	path := filepath.Join(dir, fmt.Sprintf("0+%s-%s.json", rec.Tag, rec.Key))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		d.reportDrop(err)
		return err
	}
	defer f.Close()

	if _, err := f.Write(append(rec.Payload, '\n')); err != nil {
		d.reportDrop(err)
		return err
	}
	return nil
}

func (d *DirectorySink) reportDrop(err error) {
	select {
	case d.Errors <- err:
	default:
	}
}

func (d *DirectorySink) Stop() {}
