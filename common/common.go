package common

const (
	BlockSize uint64 = 1024

	NumInodes     uint64 = 10
	NumDataBlocks uint64 = 20

	INODESZ  uint64 = 256 // on-disk size
	INODEBLK uint64 = BlockSize / INODESZ

	NBITBLOCK uint64 = BlockSize * 8

	BnumSz    uint64 = 8 // on-disk size of a block reference
	NINDIRECT uint64 = BlockSize / BnumSz

	NAMESZ     uint64 = 64 // on-disk name field, NUL terminated
	MaxNameLen uint64 = NAMESZ - 1

	Magic uint64 = 0x12345
)

type Inum = uint64
type Bnum = uint64

// NULLBNUM marks a missing block reference. Block 0 holds the superblock, so
// it can never be a data block.
const NULLBNUM Bnum = 0

type Kind uint64

const (
	KindFree Kind = 0
	KindFile Kind = 1
	KindDir  Kind = 2
)

func (k Kind) Valid() bool {
	return k == KindFile || k == KindDir
}

func (k Kind) String() string {
	switch k {
	case KindFree:
		return "free"
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	}
	return "unknown"
}
