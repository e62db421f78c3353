package buf

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mit-pdos/go-nanofs/addr"
	"github.com/mit-pdos/go-nanofs/common"
	"github.com/mit-pdos/go-nanofs/disk"
)

func TestInstallBytes(t *testing.T) {
	blk := disk.NewBlock()
	blk[3] = 0xAA
	b := MkBuf(addr.MkAddr(7, 8), 16, []byte{0x01, 0x02})
	b.Install(blk)
	assert.Equal(t, []byte{0x00, 0x01, 0x02, 0xAA}, blk[0:4])
}

func TestLoadAliases(t *testing.T) {
	blk := disk.NewBlock()
	blk[256] = 0x11
	blk[257] = 0x22
	b := MkBufLoad(addr.MkAddr(2, 256*8), 2*8, blk)
	assert.Equal(t, []byte{0x11, 0x22}, b.Data)
	b.Data[0] = 0x33
	assert.Equal(t, byte(0x33), blk[256], "loaded buf should alias its block")
}

func TestInstallUnaligned(t *testing.T) {
	blk := disk.NewBlock()
	b := MkBuf(addr.MkAddr(0, 3), 8, []byte{0xFF})
	assert.Panics(t, func() { b.Install(blk) })
	b = MkBuf(addr.MkAddr(0, common.NBITBLOCK-8), 16, []byte{0xFF, 0xFF})
	assert.Panics(t, func() { b.Install(blk) })
}

func TestBnum(t *testing.T) {
	b := MkBuf(addr.MkAddr(9, 0), common.NBITBLOCK, disk.NewBlock())
	b.BnumPut(0, 17)
	b.BnumPut(common.BnumSz*(common.NINDIRECT-1), 1<<40)
	assert.Equal(t, common.Bnum(17), b.BnumGet(0))
	assert.Equal(t, common.Bnum(1<<40), b.BnumGet(common.BnumSz*(common.NINDIRECT-1)))
	assert.Equal(t, common.NULLBNUM, b.BnumGet(common.BnumSz))
}
