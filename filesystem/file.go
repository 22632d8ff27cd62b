package filesystem

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/spf13/afero"

	"github.com/kbukum/goplatform/errors"
)

// OpenFlag selects how a file is opened. The values follow the familiar
// fopen-style spelling.
type OpenFlag string

const (
	FlagRead           OpenFlag = "r"
	FlagReadWrite      OpenFlag = "r+"
	FlagReadWriteSync  OpenFlag = "rs+"
	FlagWrite          OpenFlag = "w"
	FlagWriteExcl      OpenFlag = "wx"
	FlagWriteRead      OpenFlag = "w+"
	FlagWriteReadExcl  OpenFlag = "wx+"
	FlagAppend         OpenFlag = "a"
	FlagAppendExcl     OpenFlag = "ax"
	FlagAppendRead     OpenFlag = "a+"
	FlagAppendReadExcl OpenFlag = "ax+"
	FlagAppendSync     OpenFlag = "as"
	FlagAppendReadSync OpenFlag = "as+"
)

const defaultOpenFileMode = 0o666

var openFlags = map[OpenFlag]int{
	FlagRead:           os.O_RDONLY,
	FlagReadWrite:      os.O_RDWR,
	FlagReadWriteSync:  os.O_RDWR | os.O_SYNC,
	FlagWrite:          os.O_WRONLY | os.O_CREATE | os.O_TRUNC,
	FlagWriteExcl:      os.O_WRONLY | os.O_CREATE | os.O_TRUNC | os.O_EXCL,
	FlagWriteRead:      os.O_RDWR | os.O_CREATE | os.O_TRUNC,
	FlagWriteReadExcl:  os.O_RDWR | os.O_CREATE | os.O_TRUNC | os.O_EXCL,
	FlagAppend:         os.O_WRONLY | os.O_CREATE | os.O_APPEND,
	FlagAppendExcl:     os.O_WRONLY | os.O_CREATE | os.O_APPEND | os.O_EXCL,
	FlagAppendRead:     os.O_RDWR | os.O_CREATE | os.O_APPEND,
	FlagAppendReadExcl: os.O_RDWR | os.O_CREATE | os.O_APPEND | os.O_EXCL,
	FlagAppendSync:     os.O_WRONLY | os.O_CREATE | os.O_APPEND | os.O_SYNC,
	FlagAppendReadSync: os.O_RDWR | os.O_CREATE | os.O_APPEND | os.O_SYNC,
}

func (f OpenFlag) osFlag(method string) (int, error) {
	if f == "" {
		f = FlagRead
	}
	flag, ok := openFlags[f]
	if !ok {
		return 0, errors.NewBadArgument(moduleName, method, fmt.Sprintf("unknown open flag %q", string(f)))
	}
	return flag, nil
}

func (f OpenFlag) isAppend() bool {
	return len(f) > 0 && f[0] == 'a'
}

// File is an open file with its own cursor. Reads and writes are positional
// and serialized, so a File is safe for concurrent use.
//
// In append mode writes always go to the end of the file and do not move the
// cursor, which then only tracks reads.
type File struct {
	f      afero.File
	path   string
	append bool

	mu       sync.Mutex
	position int64
}

// Descriptor returns the OS file descriptor, or -1 when the backend has none.
func (f *File) Descriptor() int {
	if fd, ok := f.f.(interface{ Fd() uintptr }); ok {
		return int(fd.Fd())
	}
	return -1
}

// Name returns the path the file was opened with.
func (f *File) Name() string { return f.path }

func (f *File) fail(method string, err error) error {
	return errors.Classify(err, moduleName, method, f.ref())
}

func (f *File) ref() string {
	if fd := f.Descriptor(); fd >= 0 {
		return strconv.Itoa(fd)
	}
	return f.path
}

// Stat describes the open file.
func (f *File) Stat() (Info, error) {
	fi, err := f.f.Stat()
	if err != nil {
		return Info{}, f.fail("stat", err)
	}
	return infoFrom(fi), nil
}

// Sync flushes the file to stable storage.
func (f *File) Sync() error {
	if err := f.f.Sync(); err != nil {
		return f.fail("sync", err)
	}
	return nil
}

// Seek moves the cursor and returns its new position. whence is one of
// io.SeekStart, io.SeekCurrent or io.SeekEnd.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = f.position + offset
	case io.SeekEnd:
		fi, err := f.f.Stat()
		if err != nil {
			return f.position, f.fail("seek", err)
		}
		next = fi.Size() + offset
	default:
		return f.position, errors.NewBadArgument(moduleName, "seek", fmt.Sprintf("invalid whence %d", whence))
	}
	if next < 0 {
		return f.position, errors.NewBadArgument(moduleName, "seek", "negative position")
	}
	f.position = next
	return f.position, nil
}

// Read reads into buf at the cursor and advances it. It returns 0 at the
// end of the file.
func (f *File) Read(buf []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readLocked("read", buf)
}

func (f *File) readLocked(method string, buf []byte) (int, error) {
	n, err := f.f.ReadAt(buf, f.position)
	f.position += int64(n)
	if err != nil && err != io.EOF {
		return n, f.fail(method, err)
	}
	return n, nil
}

// ReadAlloc reads up to size bytes at the cursor. ok is false at the end of
// the file.
func (f *File) ReadAlloc(size int) (data []byte, ok bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	buf := make([]byte, size)
	n, err := f.readLocked("readAlloc", buf)
	if err != nil || n == 0 {
		return nil, false, err
	}
	return buf[:n], true, nil
}

// Truncate resizes the file. When not appending, a cursor past the new end
// is moved back to it.
func (f *File) Truncate(length int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.f.Truncate(length); err != nil {
		return f.fail("truncate", err)
	}
	if !f.append && f.position > length {
		f.position = length
	}
	return nil
}

// Write writes buf once and returns how much was written.
func (f *File) Write(buf []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n, err := f.writeLocked(buf)
	if err != nil {
		return n, f.fail("write", err)
	}
	return n, nil
}

func (f *File) writeLocked(buf []byte) (int, error) {
	if f.append {
		return f.f.Write(buf)
	}
	n, err := f.f.WriteAt(buf, f.position)
	f.position += int64(n)
	return n, err
}

// WriteAll writes every byte of buf. A write that makes no progress fails
// with reason WriteZero.
func (f *File) WriteAll(buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for len(buf) > 0 {
		n, err := f.writeLocked(buf)
		if err != nil {
			return f.fail("writeAll", err)
		}
		if n == 0 {
			return errors.NewSystemError(errors.ReasonWriteZero, moduleName, "writeAll", f.ref(), "write returned 0 bytes written")
		}
		buf = buf[n:]
	}
	return nil
}

func (f *File) close(method string) error {
	if err := f.f.Close(); err != nil {
		return f.fail(method, err)
	}
	return nil
}
