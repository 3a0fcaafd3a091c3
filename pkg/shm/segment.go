package shm

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sys/unix"

	"main/pkg/exception"
)

var (
	// ErrNotFound is returned when attaching to a segment that does not exist.
	ErrNotFound = errors.New("shm: segment not found")
	// ErrClosed is returned when a closed segment is locked.
	ErrClosed = errors.New("shm: segment closed")
	// ErrSizeMismatch is returned when an existing segment has a different size.
	ErrSizeMismatch = errors.New("shm: segment size mismatch")
)

// DefaultDir is where named segments live on Linux.
const DefaultDir = "/dev/shm"

// Segment is a named shared-memory region usable across processes.
// Lock takes both the cross-process file lock and an in-process mutex:
// flock is held per open file description, so goroutines sharing one
// segment handle need the inner mutex too.
type Segment struct {
	name    string
	path    string
	size    int
	file    *os.File
	data    []byte
	created bool

	mu     sync.Mutex
	closed bool
}

// Create opens the named segment under DefaultDir, creating it when absent.
func Create(name string, size int) (*Segment, error) {
	return CreateIn(DefaultDir, name, size)
}

// CreateIn opens the named segment under dir, creating it when absent.
// When the name already exists it attaches to the existing region
// instead; Created reports which of the two happened.
func CreateIn(dir, name string, size int) (*Segment, error) {
	if name == "" {
		return nil, exception.ErrEmptySegmentName
	}
	if size <= 0 {
		return nil, exception.ErrInvalidArgument
	}
	path := filepath.Join(dir, name)
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	created := err == nil
	if err != nil {
		if !os.IsExist(err) {
			return nil, err
		}
		file, err = os.OpenFile(path, os.O_RDWR, 0o600)
		if err != nil {
			return nil, err
		}
	}
	if created {
		if err := file.Truncate(int64(size)); err != nil {
			_ = file.Close()
			_ = os.Remove(path)
			return nil, err
		}
	} else if err := checkSize(file, size); err != nil {
		_ = file.Close()
		return nil, err
	}
	return mapSegment(name, path, size, file, created)
}

// Attach opens an existing named segment under DefaultDir.
func Attach(name string, size int) (*Segment, error) {
	return AttachIn(DefaultDir, name, size)
}

// AttachIn opens an existing named segment under dir.
// It fails with ErrNotFound when the name does not exist.
func AttachIn(dir, name string, size int) (*Segment, error) {
	if name == "" {
		return nil, exception.ErrEmptySegmentName
	}
	if size <= 0 {
		return nil, exception.ErrInvalidArgument
	}
	path := filepath.Join(dir, name)
	file, err := os.OpenFile(path, os.O_RDWR, 0o600)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := checkSize(file, size); err != nil {
		_ = file.Close()
		return nil, err
	}
	return mapSegment(name, path, size, file, false)
}

func checkSize(file *os.File, size int) error {
	info, err := file.Stat()
	if err != nil {
		return err
	}
	if info.Size() != int64(size) {
		return ErrSizeMismatch
	}
	return nil
}

func mapSegment(name, path string, size int, file *os.File, created bool) (*Segment, error) {
	data, err := unix.Mmap(int(file.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = file.Close()
		if created {
			_ = os.Remove(path)
		}
		return nil, err
	}
	return &Segment{
		name:    name,
		path:    path,
		size:    size,
		file:    file,
		data:    data,
		created: created,
	}, nil
}

// Name returns the segment name.
func (s *Segment) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

// Size returns the mapped size in bytes.
func (s *Segment) Size() int {
	if s == nil {
		return 0
	}
	return s.size
}

// Created reports whether this handle created the segment.
func (s *Segment) Created() bool {
	if s == nil {
		return false
	}
	return s.created
}

// Bytes returns the mapped region. Access it only between Lock and Unlock.
func (s *Segment) Bytes() []byte {
	if s == nil {
		return nil
	}
	return s.data
}

// Lock acquires the cross-process lock.
func (s *Segment) Lock() error {
	if s == nil {
		return exception.ErrNilInstance
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if err := unix.Flock(int(s.file.Fd()), unix.LOCK_EX); err != nil {
		s.mu.Unlock()
		return err
	}
	return nil
}

// Unlock releases the cross-process lock.
func (s *Segment) Unlock() {
	if s == nil {
		return
	}
	if !s.closed && s.file != nil {
		_ = unix.Flock(int(s.file.Fd()), unix.LOCK_UN)
	}
	s.mu.Unlock()
}

// Close unmaps the segment and closes the handle without removing the
// name. It is idempotent.
func (s *Segment) Close() error {
	if s == nil {
		return exception.ErrNilInstance
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	var err error
	if s.data != nil {
		err = unix.Munmap(s.data)
		s.data = nil
	}
	if s.file != nil {
		if cerr := s.file.Close(); err == nil {
			err = cerr
		}
		s.file = nil
	}
	return err
}

// Unlink removes the segment name. A missing name is not an error and
// existing mappings stay valid until closed.
func (s *Segment) Unlink() error {
	if s == nil {
		return exception.ErrNilInstance
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
