package watcher

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Op is the kind of change a notification reports.
type Op uint8

const (
	OpCreate Op = iota + 1
	OpWrite
	OpRemove
	OpRename
	OpChmod
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	case OpChmod:
		return "chmod"
	default:
		return "unknown"
	}
}

// Event is one filesystem notification.
type Event struct {
	Path  string
	Op    Op
	IsDir bool
}

// Source delivers notifications to the Watcher. Events and Errors are closed
// after Close returns.
type Source interface {
	Events() <-chan Event
	Errors() <-chan error
	Close() error
}

// FSNotifySource adapts fsnotify to Source. It watches a single directory
// without descending into subdirectories.
type FSNotifySource struct {
	fw        *fsnotify.Watcher
	events    chan Event
	errors    chan error
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// NewFSNotifySource starts watching root.
func NewFSNotifySource(root string) (*FSNotifySource, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Clean(root)); err != nil {
		_ = fw.Close()
		return nil, err
	}
	s := &FSNotifySource{
		fw:     fw,
		events: make(chan Event, 64),
		errors: make(chan error, 8),
		done:   make(chan struct{}),
	}
	s.wg.Add(1)
	go s.pump()
	return s, nil
}

func (s *FSNotifySource) Events() <-chan Event { return s.events }

func (s *FSNotifySource) Errors() <-chan error { return s.errors }

// Close stops the underlying watcher and waits for the pump to exit.
func (s *FSNotifySource) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.closeErr = s.fw.Close()
		s.wg.Wait()
	})
	return s.closeErr
}

func (s *FSNotifySource) pump() {
	defer s.wg.Done()
	defer close(s.events)
	defer close(s.errors)

	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.fw.Events:
			if !ok {
				return
			}
			op := mapOp(ev.Op)
			if op == 0 {
				continue
			}
			event := Event{Path: ev.Name, Op: op}
			if info, err := os.Lstat(ev.Name); err == nil {
				event.IsDir = info.IsDir()
			}
			select {
			case s.events <- event:
			case <-s.done:
				return
			}
		case err, ok := <-s.fw.Errors:
			if !ok {
				return
			}
			select {
			case s.errors <- err:
			case <-s.done:
				return
			}
		}
	}
}

func mapOp(op fsnotify.Op) Op {
	switch {
	case op.Has(fsnotify.Create):
		return OpCreate
	case op.Has(fsnotify.Write):
		return OpWrite
	case op.Has(fsnotify.Remove):
		return OpRemove
	case op.Has(fsnotify.Rename):
		return OpRename
	case op.Has(fsnotify.Chmod):
		return OpChmod
	default:
		return 0
	}
}
