package nanofs

import (
	"fmt"

	"github.com/mit-pdos/go-nanofs/alloc"
	"github.com/mit-pdos/go-nanofs/common"
	"github.com/mit-pdos/go-nanofs/disk"
	"github.com/mit-pdos/go-nanofs/inode"
	"github.com/mit-pdos/go-nanofs/super"
	"github.com/mit-pdos/go-nanofs/util"
)

// Mkfs formats the device: a fresh superblock, empty bitmaps, an all-free inode table and zeroed data blocks.
//
// deviceSize is only recorded in the superblock; the layout is fixed and the
// device itself must hold it. Mkfs may be called mounted or not and leaves the mount state alone. When
// mounted, the mirror is reset to the empty volume and every handle closes.
func (fs *FsState) Mkfs(deviceSize uint64) error {
	sb := super.MkSuperblock(deviceSize)
	need := sb.NumBlocks()
	nblks, err := fs.d.Size()
	if err != nil {
		return ioErr(err, "device size")
	}
	if nblks < need {
		return fmt.Errorf("%w: %d blocks, need %d", ErrDeviceTooSmall, nblks, need)
	}

	fs.sb = sb
	fs.ialloc = alloc.MkMaxAlloc(sb.NumInodes)
	fs.balloc = alloc.MkMaxAlloc(sb.NumDataBlocks)
	fs.inodes = [common.NumInodes]inode.Inode{}
	fs.files = [common.NumInodes]openFile{}

	util.DPrintf(1, "Mkfs: %v\n", sb)
	if err := fs.writeMeta(); err != nil {
		return err
	}
	zero := disk.NewBlock()
	for i := uint64(0); i < sb.NumDataBlocks; i++ {
		if err := fs.writeBlock(sb.DataBnum(i), zero); err != nil {
			return err
		}
	}
	if err := fs.d.Barrier(); err != nil {
		return ioErr(err, "barrier")
	}
	return nil
}
