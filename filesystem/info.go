package filesystem

import (
	"io/fs"
	"time"
)

// FileType is the kind of a file system entry.
type FileType string

const (
	TypeFile            FileType = "File"
	TypeDirectory       FileType = "Directory"
	TypeSymbolicLink    FileType = "SymbolicLink"
	TypeBlockDevice     FileType = "BlockDevice"
	TypeCharacterDevice FileType = "CharacterDevice"
	TypeFIFO            FileType = "FIFO"
	TypeSocket          FileType = "Socket"
	TypeUnknown         FileType = "Unknown"
)

// Info describes a file. Times that the backend does not report are zero;
// the ownership and inode fields are zero on backends without them.
type Info struct {
	Type      FileType
	Mode      fs.FileMode
	Size      int64
	Mtime     time.Time
	Atime     time.Time
	Birthtime time.Time
	Dev       uint64
	Rdev      uint64
	Ino       uint64
	Nlink     uint64
	UID       uint32
	GID       uint32
	Blksize   int64
	Blocks    int64
}

func typeOf(mode fs.FileMode) FileType {
	switch {
	case mode.IsRegular():
		return TypeFile
	case mode.IsDir():
		return TypeDirectory
	case mode&fs.ModeSymlink != 0:
		return TypeSymbolicLink
	case mode&fs.ModeCharDevice != 0:
		return TypeCharacterDevice
	case mode&fs.ModeDevice != 0:
		return TypeBlockDevice
	case mode&fs.ModeNamedPipe != 0:
		return TypeFIFO
	case mode&fs.ModeSocket != 0:
		return TypeSocket
	}
	return TypeUnknown
}

func infoFrom(fi fs.FileInfo) Info {
	info := Info{
		Type:  typeOf(fi.Mode()),
		Mode:  fi.Mode(),
		Size:  fi.Size(),
		Mtime: fi.ModTime(),
	}
	fillSys(&info, fi.Sys())
	return info
}
