// Package walog implements the write-ahead intent log described in spec.md
// §9's "Atomicity of apply/rollback" design note and detailed in
// SPEC_FULL.md §6: a durable record of an in-flight apply or rollback,
// truncated only after every sub-step (store transaction, Txp fold, Ssc
// fold) has committed, and replayed on startup if a crash left one behind.
package walog

import (
	"bytes"
	"encoding/gob"
	"errors"
	"os"

	"github.com/epochra/epochra/pkg/core/types"
)

// Op names the operation an Intent describes.
type Op uint8

const (
	OpApply Op = iota
	OpRollback
)

// Intent is the durable record written before an apply/rollback critical
// section begins mutating state, and truncated only once every sub-step
// has committed.
type Intent struct {
	Op     Op
	OldTip types.Hash
	NewTip types.Hash
	Pairs  []types.BlockUndo
}

// Log is a single-file write-ahead log holding at most one pending Intent
// at a time, mirroring the tip semaphore's single-writer discipline: the
// core only ever has one apply/rollback in flight.
type Log struct {
	path string
}

// Open returns a Log backed by the file at path. The file is created on
// first Write if it does not exist.
func Open(path string) *Log {
	return &Log{path: path}
}

// Write durably records intent, replacing any prior (necessarily already
// truncated) record.
func (l *Log) Write(intent Intent) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(intent); err != nil {
		return err
	}

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Truncate clears the pending intent after its critical section has fully
// committed.
func (l *Log) Truncate() error {
	return os.Remove(l.path)
}

// Read returns the pending Intent, or (Intent{}, false, nil) if no crash
// left one behind.
func (l *Log) Read() (Intent, bool, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Intent{}, false, nil
		}
		return Intent{}, false, err
	}
	if len(data) == 0 {
		return Intent{}, false, nil
	}

	var intent Intent
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&intent); err != nil {
		return Intent{}, false, err
	}
	return intent, true, nil
}
