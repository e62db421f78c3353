package nanofs

import (
	"sort"

	"github.com/mit-pdos/go-nanofs/addr"
	"github.com/mit-pdos/go-nanofs/alloc"
	"github.com/mit-pdos/go-nanofs/buf"
	"github.com/mit-pdos/go-nanofs/common"
	"github.com/mit-pdos/go-nanofs/disk"
	"github.com/mit-pdos/go-nanofs/inode"
	"github.com/mit-pdos/go-nanofs/super"
	"github.com/mit-pdos/go-nanofs/util"
)

// regionBufs splits data, a byte region starting at region byte 0, into bufs
// that do not cross block boundaries.
func regionBufs(at func(n uint64) addr.Addr, data []byte) []*buf.Buf {
	var bufs []*buf.Buf
	for off := uint64(0); off < uint64(len(data)); {
		a := at(off)
		n := util.Min(uint64(len(data))-off, common.BlockSize-a.ByteOff())
		bufs = append(bufs, buf.MkBuf(a, n*8, data[off:off+n]))
		off += n
	}
	return bufs
}

// metaBufs collects every metadata object of the mirror.
func (fs *FsState) metaBufs() []*buf.Buf {
	bufs := []*buf.Buf{
		buf.MkBuf(addr.MkAddr(super.SUPERBLOCK, 0), common.NBITBLOCK, fs.sb.Encode()),
	}
	bufs = append(bufs, regionBufs(fs.sb.InodeBitmapAddr, fs.ialloc.Bytes())...)
	bufs = append(bufs, regionBufs(fs.sb.BlockBitmapAddr, fs.balloc.Bytes())...)
	for inum := range fs.inodes {
		a := fs.sb.Inum2Addr(common.Inum(inum))
		bufs = append(bufs, buf.MkBuf(a, common.INODESZ*8, fs.inodes[inum].Encode()))
	}
	return bufs
}

// installBufsMap installs bufs into zeroed copies of the metadata blocks,
// so padding between objects is always written as zero.
func (fs *FsState) installBufsMap(bufs []*buf.Buf) map[common.Bnum]disk.Block {
	blks := make(map[common.Bnum]disk.Block)
	for bn := super.SUPERBLOCK; bn < fs.sb.FirstDataBlock; bn++ {
		blks[bn] = disk.NewBlock()
	}
	for _, b := range bufs {
		blk, ok := blks[b.Addr.Blkno]
		if !ok {
			panic("installBufsMap: buf outside metadata region")
		}
		b.Install(blk)
	}
	return blks
}

// writeMeta writes the whole in-memory mirror to the device in block order.
func (fs *FsState) writeMeta() error {
	blks := fs.installBufsMap(fs.metaBufs())
	bns := make([]common.Bnum, 0, len(blks))
	for bn := range blks {
		bns = append(bns, bn)
	}
	sort.Slice(bns, func(i, j int) bool { return bns[i] < bns[j] })
	for _, bn := range bns {
		util.DPrintf(5, "writeMeta: block %d\n", bn)
		if err := fs.writeBlock(bn, blks[bn]); err != nil {
			return err
		}
	}
	return nil
}

type blockCache struct {
	fs   *FsState
	blks map[common.Bnum]disk.Block
}

func (c *blockCache) get(bn common.Bnum) (disk.Block, error) {
	if blk, ok := c.blks[bn]; ok {
		return blk, nil
	}
	blk, err := c.fs.readBlock(bn)
	if err != nil {
		return nil, err
	}
	c.blks[bn] = blk
	return blk, nil
}

func (c *blockCache) loadRegion(at func(n uint64) addr.Addr, nbytes uint64) ([]byte, error) {
	data := make([]byte, nbytes)
	for off := uint64(0); off < nbytes; {
		a := at(off)
		n := util.Min(nbytes-off, common.BlockSize-a.ByteOff())
		blk, err := c.get(a.Blkno)
		if err != nil {
			return nil, err
		}
		b := buf.MkBufLoad(a, n*8, blk)
		copy(data[off:off+n], b.Data)
		off += n
	}
	return data, nil
}

// readMeta loads the bitmaps and the inode table described by sb. It does
// not touch the mirror, so a failed mount leaves fs unchanged.
func (fs *FsState) readMeta(sb *super.Superblock) (*alloc.Alloc, *alloc.Alloc,
	[common.NumInodes]inode.Inode, error) {
	var inodes [common.NumInodes]inode.Inode
	c := &blockCache{fs: fs, blks: make(map[common.Bnum]disk.Block)}

	ibits, err := c.loadRegion(sb.InodeBitmapAddr, sb.InodeBitmapBytes())
	if err != nil {
		return nil, nil, inodes, err
	}
	bbits, err := c.loadRegion(sb.BlockBitmapAddr, sb.BlockBitmapBytes())
	if err != nil {
		return nil, nil, inodes, err
	}
	for inum := range inodes {
		a := sb.Inum2Addr(common.Inum(inum))
		blk, err := c.get(a.Blkno)
		if err != nil {
			return nil, nil, inodes, err
		}
		b := buf.MkBufLoad(a, common.INODESZ*8, blk)
		inodes[inum] = inode.Decode(b.Data)
	}
	ialloc := alloc.MkAlloc(ibits, sb.NumInodes)
	reconcileInodes(ialloc, &inodes)
	return ialloc, alloc.MkAlloc(bbits, sb.NumDataBlocks), inodes, nil
}

// reconcileInodes makes the inode bitmap agree with the inode records: a bit
// is set exactly when its record is in use.
func reconcileInodes(ialloc *alloc.Alloc, inodes *[common.NumInodes]inode.Inode) {
	for inum := uint64(0); inum < ialloc.Max(); inum++ {
		inUse := inodes[inum].InUse()
		used := ialloc.IsUsed(inum)
		if inUse && !used {
			util.DPrintf(1, "Mount: inode %d in use but free in bitmap\n", inum)
			ialloc.MarkUsed(inum)
		} else if !inUse && used {
			util.DPrintf(1, "Mount: inode %d free but set in bitmap\n", inum)
			ialloc.FreeNum(inum)
		}
	}
}
