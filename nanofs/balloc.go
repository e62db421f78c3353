package nanofs

import (
	"fmt"

	"github.com/mit-pdos/go-nanofs/common"
	"github.com/mit-pdos/go-nanofs/disk"
	"github.com/mit-pdos/go-nanofs/inode"
	"github.com/mit-pdos/go-nanofs/util"
)

// allocInode claims the lowest free inode and clears its record.
func (fs *FsState) allocInode() (common.Inum, error) {
	inum, ok := fs.ialloc.AllocNum()
	if !ok {
		return 0, ErrOutOfInodes
	}
	fs.inodes[inum] = inode.Inode{}
	util.DPrintf(5, "allocInode -> %d\n", inum)
	return inum, nil
}

func (fs *FsState) freeInode(inum common.Inum) error {
	if !fs.ialloc.FreeNum(inum) {
		return fmt.Errorf("%w: inode %d", ErrInvalidHandle, inum)
	}
	util.DPrintf(5, "freeInode %d\n", inum)
	return nil
}

// allocBlock claims the lowest free data block, zeroes it on the device and
// returns its physical block number.
func (fs *FsState) allocBlock() (common.Bnum, error) {
	n, ok := fs.balloc.AllocNum()
	if !ok {
		return common.NULLBNUM, ErrOutOfBlocks
	}
	bn := fs.sb.DataBnum(n)
	if err := fs.writeBlock(bn, disk.NewBlock()); err != nil {
		fs.balloc.FreeNum(n)
		return common.NULLBNUM, err
	}
	util.DPrintf(5, "allocBlock -> %d\n", bn)
	return bn, nil
}

// freeBlock releases the data block bn. Freeing NULLBNUM is a no-op.
func (fs *FsState) freeBlock(bn common.Bnum) error {
	if bn == common.NULLBNUM {
		return nil
	}
	n, ok := fs.sb.DataIndex(bn)
	if !ok || !fs.balloc.FreeNum(n) {
		return fmt.Errorf("%w: block %d", ErrInvalidBlock, bn)
	}
	util.DPrintf(5, "freeBlock %d\n", bn)
	return nil
}
