package nanofs

import (
	"fmt"

	"github.com/mit-pdos/go-nanofs/common"
	"github.com/mit-pdos/go-nanofs/inode"
	"github.com/mit-pdos/go-nanofs/super"
	"github.com/mit-pdos/go-nanofs/util"
)

// Mount loads the superblock, both bitmaps and the inode table into memory.
// On failure nothing is loaded and fs stays unmounted.
func (fs *FsState) Mount() error {
	if fs.mounted {
		return ErrAlreadyMounted
	}
	blk, err := fs.readBlock(super.SUPERBLOCK)
	if err != nil {
		return err
	}
	sb := super.Decode(blk)
	if err := sb.Validate(); err != nil {
		return err
	}
	nblks, err := fs.d.Size()
	if err != nil {
		return ioErr(err, "device size")
	}
	if nblks < sb.NumBlocks() {
		return fmt.Errorf("%w: device has %d blocks, volume needs %d",
			ErrBadGeometry, nblks, sb.NumBlocks())
	}
	ialloc, balloc, inodes, err := fs.readMeta(sb)
	if err != nil {
		return err
	}

	fs.sb = sb
	fs.ialloc = ialloc
	fs.balloc = balloc
	fs.inodes = inodes
	fs.files = [common.NumInodes]openFile{}
	fs.mounted = true
	util.DPrintf(1, "Mount: %v\n", sb)
	return nil
}

// Unmount writes the mirror back, waits for the device and drops the mirror.
// It refuses while any file is open.
func (fs *FsState) Unmount() error {
	if err := fs.checkMounted(); err != nil {
		return err
	}
	for inum := range fs.files {
		if fs.files[inum].open {
			return fmt.Errorf("%w: inode %d", ErrFilesBusy, inum)
		}
	}
	if err := fs.writeMeta(); err != nil {
		return err
	}
	if err := fs.d.Barrier(); err != nil {
		return ioErr(err, "barrier")
	}
	fs.sb = nil
	fs.ialloc = nil
	fs.balloc = nil
	fs.inodes = [common.NumInodes]inode.Inode{}
	fs.mounted = false
	util.DPrintf(1, "Unmount\n")
	return nil
}
