//go:build linux

package filesystem

import (
	"syscall"
	"time"
)

func fillSys(info *Info, sys any) {
	st, ok := sys.(*syscall.Stat_t)
	if !ok {
		return
	}
	info.Dev = uint64(st.Dev)
	info.Rdev = uint64(st.Rdev)
	info.Ino = uint64(st.Ino)
	info.Nlink = uint64(st.Nlink)
	info.UID = st.Uid
	info.GID = st.Gid
	info.Blksize = int64(st.Blksize)
	info.Blocks = int64(st.Blocks)
	info.Atime = time.Unix(int64(st.Atim.Sec), int64(st.Atim.Nsec))
}
