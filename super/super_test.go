package super

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/go-nanofs/addr"
	"github.com/mit-pdos/go-nanofs/common"
)

func TestLayout(t *testing.T) {
	assert := assert.New(t)
	sb := MkSuperblock(25 * common.BlockSize)
	assert.Equal(common.Bnum(1), sb.FirstMapsBlock)
	assert.Equal(uint64(1), sb.NumMapBlocks)
	assert.Equal(common.Bnum(2), sb.FirstInodeBlk)
	assert.Equal(uint64(3), sb.NumInodeBlocks)
	assert.Equal(common.Bnum(5), sb.FirstDataBlock)
	assert.Equal(uint64(25), sb.NumBlocks())
	assert.NoError(sb.Validate())
}

func TestAddrs(t *testing.T) {
	assert := assert.New(t)
	sb := MkSuperblock(25 * common.BlockSize)

	assert.Equal(addr.MkAddr(2, 0), sb.Inum2Addr(0))
	assert.Equal(addr.MkAddr(2, 3*common.INODESZ*8), sb.Inum2Addr(3))
	assert.Equal(addr.MkAddr(3, 0), sb.Inum2Addr(4))
	assert.Equal(addr.MkAddr(4, common.INODESZ*8), sb.Inum2Addr(9))

	assert.Equal(addr.MkAddr(1, 0), sb.InodeBitmapAddr(0))
	assert.Equal(addr.MkAddr(1, 2*8), sb.BlockBitmapAddr(0),
		"block bitmap follows the 2-byte inode bitmap")

	assert.Equal(common.Bnum(5), sb.DataBnum(0))
	i, ok := sb.DataIndex(24)
	assert.True(ok)
	assert.Equal(uint64(19), i)
	_, ok = sb.DataIndex(25)
	assert.False(ok)
	_, ok = sb.DataIndex(common.NULLBNUM)
	assert.False(ok)
}

func TestEncodeDecode(t *testing.T) {
	sb := MkSuperblock(25 * common.BlockSize)
	blk := sb.Encode()
	require.Len(t, blk, int(common.BlockSize))
	got := Decode(blk)
	assert.Equal(t, *sb, *got)
	assert.NoError(t, got.Validate())
}

func TestValidate(t *testing.T) {
	sb := MkSuperblock(25 * common.BlockSize)
	sb.Magic = 0xdead
	assert.True(t, errors.Is(sb.Validate(), ErrBadMagic))

	sb = MkSuperblock(25 * common.BlockSize)
	sb.NumDataBlocks = 1000
	assert.True(t, errors.Is(sb.Validate(), ErrBadGeometry))

	assert.True(t, errors.Is(Decode(make([]byte, common.BlockSize)).Validate(),
		ErrBadMagic), "a zeroed device is not a volume")
}

func TestValidateRegions(t *testing.T) {
	sb := MkSuperblock(25 * common.BlockSize)
	sb.FirstDataBlock = sb.FirstInodeBlk + 1
	err := sb.Validate()
	assert.True(t, errors.Is(err, ErrBadGeometry))
	assert.Contains(t, err.Error(), "overlapping regions")

	sb = MkSuperblock(25 * common.BlockSize)
	sb.NumMapBlocks = 1<<64 - 1
	assert.Contains(t, sb.Validate().Error(), "overlapping regions",
		"wrapping region sizes are rejected")

	sb = MkSuperblock(25 * common.BlockSize)
	sb.InodesPerBlock = 1
	assert.Contains(t, sb.Validate().Error(), "inode table too small")
}

func TestValidateKeepsUUID(t *testing.T) {
	sb := MkSuperblock(32)
	id := sb.UUID
	assert.NoError(t, sb.Validate(), "device size is only recorded")
	assert.Equal(t, id, sb.UUID)
	assert.NotEqual(t, MkSuperblock(32).UUID, id)
}
