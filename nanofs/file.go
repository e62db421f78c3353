package nanofs

import (
	"fmt"

	"github.com/mit-pdos/go-nanofs/common"
	"github.com/mit-pdos/go-nanofs/util"
)

func (fs *FsState) checkHandle(fd common.Inum) error {
	if err := fs.checkMounted(); err != nil {
		return err
	}
	if !validInum(fd) {
		return fmt.Errorf("%w: %d", ErrInvalidHandle, fd)
	}
	return nil
}

func (fs *FsState) lookupFd(fd common.Inum) (*openFile, error) {
	if err := fs.checkHandle(fd); err != nil {
		return nil, err
	}
	f := &fs.files[fd]
	if !f.open {
		return nil, fmt.Errorf("%w: %d not open", ErrInvalidHandle, fd)
	}
	return f, nil
}

// Open returns the handle of name positioned at 0. Opening an open file
// rewinds it.
func (fs *FsState) Open(name string) (common.Inum, error) {
	inum, err := fs.Namei(name)
	if err != nil {
		return 0, err
	}
	fs.files[inum] = openFile{pos: 0, open: true}
	util.DPrintf(5, "Open %q -> %d\n", name, inum)
	return inum, nil
}

// Close ends the session on fd. Closing a closed handle is a no-op.
func (fs *FsState) Close(fd common.Inum) error {
	if err := fs.checkHandle(fd); err != nil {
		return err
	}
	fs.files[fd] = openFile{}
	return nil
}

// Read copies up to len(p) bytes from the current position, stopping at the
// end of the file. Unmapped blocks read as zeros.
func (fs *FsState) Read(fd common.Inum, p []byte) (uint64, error) {
	f, err := fs.lookupFd(fd)
	if err != nil {
		return 0, err
	}
	size := fs.inodes[fd].Size
	if f.pos >= size {
		return 0, nil
	}
	n := util.Min(uint64(len(p)), size-f.pos)
	var done uint64
	for done < n {
		boff := f.pos % common.BlockSize
		chunk := util.Min(common.BlockSize-boff, n-done)
		bn, err := fs.bmap(fd, f.pos)
		if err != nil {
			return done, err
		}
		if bn == common.NULLBNUM {
			for i := done; i < done+chunk; i++ {
				p[i] = 0
			}
		} else {
			blk, err := fs.readBlock(bn)
			if err != nil {
				return done, err
			}
			copy(p[done:done+chunk], blk[boff:boff+chunk])
		}
		f.pos += chunk
		done += chunk
	}
	util.DPrintf(10, "Read %d: %d bytes\n", fd, done)
	return done, nil
}

// Write copies p into the file at the current position, allocating blocks as
// needed and growing the size. On failure it returns the number of bytes
// already written along with the error.
func (fs *FsState) Write(fd common.Inum, p []byte) (uint64, error) {
	f, err := fs.lookupFd(fd)
	if err != nil {
		return 0, err
	}
	ip := &fs.inodes[fd]
	n := uint64(len(p))
	var done uint64
	for done < n {
		boff := f.pos % common.BlockSize
		chunk := util.Min(common.BlockSize-boff, n-done)
		bn, err := fs.bmapAlloc(fd, f.pos)
		if err != nil {
			return done, err
		}
		blk, err := fs.readBlock(bn)
		if err != nil {
			return done, err
		}
		copy(blk[boff:boff+chunk], p[done:done+chunk])
		if err := fs.writeBlock(bn, blk); err != nil {
			return done, err
		}
		f.pos += chunk
		done += chunk
		ip.Size = util.Max(ip.Size, f.pos)
	}
	util.DPrintf(10, "Write %d: %d bytes, size %d\n", fd, done, ip.Size)
	return done, nil
}

// Lseek moves the position of fd and returns the new position. A position
// before the start of the file is rejected and leaves fd unchanged.
func (fs *FsState) Lseek(fd common.Inum, off int64, whence int) (uint64, error) {
	f, err := fs.lookupFd(fd)
	if err != nil {
		return 0, err
	}
	var base uint64
	switch whence {
	case SeekSet:
		base = 0
	case SeekCur:
		base = f.pos
	case SeekEnd:
		base = fs.inodes[fd].Size
	default:
		return f.pos, fmt.Errorf("%w: %d", ErrInvalidWhence, whence)
	}
	if off >= 0 {
		if util.SumOverflows(base, uint64(off)) {
			return f.pos, fmt.Errorf("%w: %d%+d", ErrOffsetOutOfRange, base, off)
		}
		f.pos = base + uint64(off)
		return f.pos, nil
	}
	// -off wraps for math.MinInt64, but its uint64 is still the magnitude
	back := uint64(-off)
	if back > base {
		return f.pos, fmt.Errorf("%w: %d%+d", ErrOffsetOutOfRange, base, off)
	}
	f.pos = base - back
	return f.pos, nil
}
