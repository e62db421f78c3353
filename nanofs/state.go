// Package nanofs is a flat-namespace file system over a small, statically
// sized block device.
//
// All metadata (superblock, both bitmaps and the inode table) lives in memory
// between Mount and Unmount; the device is only touched for metadata at those
// two points. File data goes straight to the device. An FsState is not safe
// for concurrent use.
package nanofs

import (
	"io"

	"github.com/mit-pdos/go-nanofs/alloc"
	"github.com/mit-pdos/go-nanofs/common"
	"github.com/mit-pdos/go-nanofs/disk"
	"github.com/mit-pdos/go-nanofs/inode"
	"github.com/mit-pdos/go-nanofs/super"
)

const (
	SeekSet = io.SeekStart
	SeekCur = io.SeekCurrent
	SeekEnd = io.SeekEnd
)

// openFile is the session state of one inode; the inode number doubles as
// the file handle.
type openFile struct {
	pos  uint64
	open bool
}

type FsState struct {
	d       disk.Disk
	mounted bool

	sb     *super.Superblock
	ialloc *alloc.Alloc
	balloc *alloc.Alloc
	inodes [common.NumInodes]inode.Inode
	files  [common.NumInodes]openFile
}

// MkFsState returns an unmounted file system over d.
func MkFsState(d disk.Disk) *FsState {
	return &FsState{d: d}
}

func (fs *FsState) Mounted() bool {
	return fs.mounted
}

// Superblock returns a copy of the mounted superblock.
func (fs *FsState) Superblock() (super.Superblock, error) {
	if !fs.mounted {
		return super.Superblock{}, ErrNotMounted
	}
	return *fs.sb, nil
}

func (fs *FsState) FreeInodes() uint64 {
	if !fs.mounted {
		return 0
	}
	return fs.ialloc.NumFree()
}

func (fs *FsState) FreeBlocks() uint64 {
	if !fs.mounted {
		return 0
	}
	return fs.balloc.NumFree()
}

func (fs *FsState) readBlock(bn common.Bnum) (disk.Block, error) {
	blk, err := fs.d.Read(bn)
	if err != nil {
		return nil, ioErr(err, "reading block %d", bn)
	}
	return blk, nil
}

func (fs *FsState) writeBlock(bn common.Bnum, blk disk.Block) error {
	if err := fs.d.Write(bn, blk); err != nil {
		return ioErr(err, "writing block %d", bn)
	}
	return nil
}

func (fs *FsState) checkMounted() error {
	if !fs.mounted {
		return ErrNotMounted
	}
	return nil
}

func validInum(inum common.Inum) bool {
	return inum < common.NumInodes
}
