package addr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mit-pdos/go-nanofs/common"
)

func TestBitAddr(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(Addr{Blkno: 1, Off: 5}, MkBitAddr(1, 5))
	assert.Equal(Addr{Blkno: 2, Off: 3}, MkBitAddr(1, common.NBITBLOCK+3),
		"bitmaps spill into the next block")
}

func TestByteAddr(t *testing.T) {
	assert := assert.New(t)
	a := MkByteAddr(4, 2)
	assert.Equal(Addr{Blkno: 4, Off: 16}, a)
	assert.Equal(uint64(2), a.ByteOff())
	assert.Equal(Addr{Blkno: 5, Off: 0}, MkByteAddr(4, common.BlockSize))
}
