// Package super computes and persists the fixed geometry of a volume.
//
// Block 0 holds the superblock. The bitmap region follows it and holds the
// inode bitmap followed by the block bitmap, byte-packed. The inode table
// comes next, INODEBLK records per block, and the data region fills the rest.
package super

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tchajed/marshal"

	"github.com/mit-pdos/go-nanofs/addr"
	"github.com/mit-pdos/go-nanofs/common"
	"github.com/mit-pdos/go-nanofs/disk"
	"github.com/mit-pdos/go-nanofs/util"
)

var (
	ErrBadMagic    = errors.New("bad superblock magic number")
	ErrBadGeometry = errors.New("superblock geometry does not match this build")
)

const (
	SUPERBLOCK common.Bnum = 0

	nfields   uint64 = 11
	uuidOff   uint64 = nfields * 8
	encodedSz uint64 = uuidOff + 16
)

type Superblock struct {
	Magic          uint64
	NumInodes      uint64
	InodesPerBlock uint64
	NumInodeBlocks uint64
	NumDataBlocks  uint64
	NumMapBlocks   uint64
	FirstMapsBlock common.Bnum
	FirstInodeBlk  common.Bnum
	FirstDataBlock common.Bnum
	BlockSize      uint64
	DeviceSize     uint64 // bytes
	UUID           uuid.UUID
}

func inodeBitmapBytes() uint64 {
	return util.RoundUp(common.NumInodes, 8)
}

func blockBitmapBytes() uint64 {
	return util.RoundUp(common.NumDataBlocks, 8)
}

// MkSuperblock lays out a fresh volume for a device of deviceSize bytes.
func MkSuperblock(deviceSize uint64) *Superblock {
	sb := mkGeometry(deviceSize)
	sb.UUID = uuid.New()
	return sb
}

// mkGeometry computes the region layout fixed by the compiled constants.
func mkGeometry(deviceSize uint64) *Superblock {
	nmap := util.RoundUp(inodeBitmapBytes()+blockBitmapBytes(), common.BlockSize)
	ninode := util.RoundUp(common.NumInodes, common.INODEBLK)
	sb := &Superblock{
		Magic:          common.Magic,
		NumInodes:      common.NumInodes,
		InodesPerBlock: common.INODEBLK,
		NumInodeBlocks: ninode,
		NumDataBlocks:  common.NumDataBlocks,
		NumMapBlocks:   nmap,
		FirstMapsBlock: SUPERBLOCK + 1,
		FirstInodeBlk:  SUPERBLOCK + 1 + nmap,
		FirstDataBlock: SUPERBLOCK + 1 + nmap + ninode,
		BlockSize:      common.BlockSize,
		DeviceSize:     deviceSize,
	}
	return sb
}

// NumBlocks is the number of device blocks the layout occupies.
func (sb *Superblock) NumBlocks() uint64 {
	return sb.FirstDataBlock + sb.NumDataBlocks
}

func (sb *Superblock) Inum2Addr(inum common.Inum) addr.Addr {
	return addr.MkAddr(sb.FirstInodeBlk+common.Bnum(inum/sb.InodesPerBlock),
		(inum%sb.InodesPerBlock)*common.INODESZ*8)
}

// InodeBitmapAddr is the address of byte n of the inode bitmap.
func (sb *Superblock) InodeBitmapAddr(n uint64) addr.Addr {
	return addr.MkByteAddr(sb.FirstMapsBlock, n)
}

// BlockBitmapAddr is the address of byte n of the block bitmap.
func (sb *Superblock) BlockBitmapAddr(n uint64) addr.Addr {
	return addr.MkByteAddr(sb.FirstMapsBlock, inodeBitmapBytes()+n)
}

func (sb *Superblock) InodeBitmapBytes() uint64 {
	return inodeBitmapBytes()
}

func (sb *Superblock) BlockBitmapBytes() uint64 {
	return blockBitmapBytes()
}

// DataBnum maps a block-bitmap index to its physical block.
func (sb *Superblock) DataBnum(i uint64) common.Bnum {
	return sb.FirstDataBlock + common.Bnum(i)
}

// DataIndex maps a physical data block back to its block-bitmap index.
func (sb *Superblock) DataIndex(bn common.Bnum) (uint64, bool) {
	if bn < sb.FirstDataBlock || bn >= sb.NumBlocks() {
		return 0, false
	}
	return uint64(bn - sb.FirstDataBlock), true
}

func (sb *Superblock) Encode() disk.Block {
	enc := marshal.NewEnc(disk.BlockSize)
	enc.PutInt(sb.Magic)
	enc.PutInt(sb.NumInodes)
	enc.PutInt(sb.InodesPerBlock)
	enc.PutInt(sb.NumInodeBlocks)
	enc.PutInt(sb.NumDataBlocks)
	enc.PutInt(sb.NumMapBlocks)
	enc.PutInt(sb.FirstMapsBlock)
	enc.PutInt(sb.FirstInodeBlk)
	enc.PutInt(sb.FirstDataBlock)
	enc.PutInt(sb.BlockSize)
	enc.PutInt(sb.DeviceSize)
	blk := enc.Finish()
	copy(blk[uuidOff:encodedSz], sb.UUID[:])
	return blk
}

func Decode(blk disk.Block) *Superblock {
	dec := marshal.NewDec(blk)
	sb := &Superblock{}
	sb.Magic = dec.GetInt()
	sb.NumInodes = dec.GetInt()
	sb.InodesPerBlock = dec.GetInt()
	sb.NumInodeBlocks = dec.GetInt()
	sb.NumDataBlocks = dec.GetInt()
	sb.NumMapBlocks = dec.GetInt()
	sb.FirstMapsBlock = dec.GetInt()
	sb.FirstInodeBlk = dec.GetInt()
	sb.FirstDataBlock = dec.GetInt()
	sb.BlockSize = dec.GetInt()
	sb.DeviceSize = dec.GetInt()
	copy(sb.UUID[:], blk[uuidOff:encodedSz])
	return sb
}

// Validate checks that sb was written by this build's mkfs: the magic number
// first, then that the regions are ordered and disjoint, and finally that the
// geometry matches the compiled constants.
func (sb *Superblock) Validate() error {
	if sb.Magic != common.Magic {
		return fmt.Errorf("%w: 0x%x", ErrBadMagic, sb.Magic)
	}
	if util.SumOverflows(sb.FirstMapsBlock, sb.NumMapBlocks) ||
		util.SumOverflows(sb.FirstInodeBlk, sb.NumInodeBlocks) ||
		!(SUPERBLOCK < sb.FirstMapsBlock &&
			sb.FirstMapsBlock+sb.NumMapBlocks <= sb.FirstInodeBlk &&
			sb.FirstInodeBlk+sb.NumInodeBlocks <= sb.FirstDataBlock) {
		return fmt.Errorf("%w: overlapping regions", ErrBadGeometry)
	}
	if sb.InodesPerBlock*sb.NumInodeBlocks < sb.NumInodes {
		return fmt.Errorf("%w: inode table too small", ErrBadGeometry)
	}
	want := mkGeometry(sb.DeviceSize)
	want.UUID = sb.UUID
	if *sb != *want {
		return fmt.Errorf("%w: %+v", ErrBadGeometry, *sb)
	}
	return nil
}

func (sb *Superblock) String() string {
	return fmt.Sprintf("magic 0x%x inodes %d (%d/blk, %d blks @%d) "+
		"data %d @%d maps %d @%d bsize %d dev %d uuid %s",
		sb.Magic, sb.NumInodes, sb.InodesPerBlock, sb.NumInodeBlocks,
		sb.FirstInodeBlk, sb.NumDataBlocks, sb.FirstDataBlock,
		sb.NumMapBlocks, sb.FirstMapsBlock, sb.BlockSize, sb.DeviceSize,
		sb.UUID)
}
