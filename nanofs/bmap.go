package nanofs

import (
	"fmt"

	"github.com/mit-pdos/go-nanofs/addr"
	"github.com/mit-pdos/go-nanofs/buf"
	"github.com/mit-pdos/go-nanofs/common"
)

// MaxFileSize is the reach of one direct block plus a full indirect block.
const MaxFileSize uint64 = (1 + common.NINDIRECT) * common.BlockSize

func (fs *FsState) loadIndirect(bn common.Bnum) (*buf.Buf, error) {
	blk, err := fs.readBlock(bn)
	if err != nil {
		return nil, err
	}
	return buf.MkBufLoad(addr.MkAddr(bn, 0), common.NBITBLOCK, blk), nil
}

func (fs *FsState) checkRef(inum common.Inum, bn common.Bnum) (common.Bnum, error) {
	if bn == common.NULLBNUM {
		return bn, nil
	}
	if _, ok := fs.sb.DataIndex(bn); !ok {
		return common.NULLBNUM, fmt.Errorf("%w: inode %d references block %d",
			ErrInvalidBlock, inum, bn)
	}
	return bn, nil
}

// bmap maps byte offset off of inum to a physical block, or NULLBNUM for a
// hole. It never allocates.
func (fs *FsState) bmap(inum common.Inum, off uint64) (common.Bnum, error) {
	ip := &fs.inodes[inum]
	lbn := off / common.BlockSize
	if lbn == 0 {
		return fs.checkRef(inum, ip.Direct)
	}
	if lbn-1 >= common.NINDIRECT {
		return common.NULLBNUM, fmt.Errorf("%w: %d", ErrOffsetOutOfRange, off)
	}
	ind, err := fs.checkRef(inum, ip.Indirect)
	if err != nil || ind == common.NULLBNUM {
		return common.NULLBNUM, err
	}
	b, err := fs.loadIndirect(ind)
	if err != nil {
		return common.NULLBNUM, err
	}
	return fs.checkRef(inum, b.BnumGet((lbn-1)*common.BnumSz))
}

// bmapAlloc is bmap for writers: missing direct, indirect and data blocks
// along the path to off are allocated.
func (fs *FsState) bmapAlloc(inum common.Inum, off uint64) (common.Bnum, error) {
	ip := &fs.inodes[inum]
	lbn := off / common.BlockSize
	if lbn == 0 {
		if ip.Direct == common.NULLBNUM {
			bn, err := fs.allocBlock()
			if err != nil {
				return common.NULLBNUM, err
			}
			ip.Direct = bn
		}
		return fs.checkRef(inum, ip.Direct)
	}
	if lbn-1 >= common.NINDIRECT {
		return common.NULLBNUM, fmt.Errorf("%w: %d", ErrOffsetOutOfRange, off)
	}
	if ip.Indirect == common.NULLBNUM {
		bn, err := fs.allocBlock()
		if err != nil {
			return common.NULLBNUM, err
		}
		ip.Indirect = bn
	}
	ind, err := fs.checkRef(inum, ip.Indirect)
	if err != nil {
		return common.NULLBNUM, err
	}
	b, err := fs.loadIndirect(ind)
	if err != nil {
		return common.NULLBNUM, err
	}
	slot := (lbn - 1) * common.BnumSz
	bn, err := fs.checkRef(inum, b.BnumGet(slot))
	if err != nil || bn != common.NULLBNUM {
		return bn, err
	}
	bn, err = fs.allocBlock()
	if err != nil {
		return common.NULLBNUM, err
	}
	b.BnumPut(slot, bn)
	if err := fs.writeBlock(ind, b.Data); err != nil {
		fs.freeBlock(bn)
		return common.NULLBNUM, err
	}
	return bn, nil
}

// Bmap maps byte offset off of inode inum to the physical block holding it.
// NULLBNUM means no block is mapped there.
func (fs *FsState) Bmap(inum common.Inum, off uint64) (common.Bnum, error) {
	if err := fs.checkMounted(); err != nil {
		return common.NULLBNUM, err
	}
	if !validInum(inum) {
		return common.NULLBNUM, fmt.Errorf("%w: inode %d", ErrInvalidHandle, inum)
	}
	return fs.bmap(inum, off)
}

// truncate releases every block of inum, including the indirect block and
// every block it references.
func (fs *FsState) truncate(inum common.Inum) error {
	ip := &fs.inodes[inum]
	if ip.Indirect != common.NULLBNUM {
		ind, err := fs.checkRef(inum, ip.Indirect)
		if err != nil {
			return err
		}
		b, err := fs.loadIndirect(ind)
		if err != nil {
			return err
		}
		for i := uint64(0); i < common.NINDIRECT; i++ {
			if err := fs.freeBlock(b.BnumGet(i * common.BnumSz)); err != nil {
				return err
			}
		}
		if err := fs.freeBlock(ind); err != nil {
			return err
		}
		ip.Indirect = common.NULLBNUM
	}
	if err := fs.freeBlock(ip.Direct); err != nil {
		return err
	}
	ip.Direct = common.NULLBNUM
	ip.Size = 0
	return nil
}
