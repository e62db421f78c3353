package disk

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkBlock(b byte) Block {
	block := NewBlock()
	for i := range block {
		block[i] = b
	}
	return block
}

func testReadWrite(t *testing.T, d Disk) {
	assert := assert.New(t)

	sz, err := d.Size()
	require.NoError(t, err)
	assert.Equal(uint64(8), sz)

	blk, err := d.Read(3)
	require.NoError(t, err)
	assert.Equal(mkBlock(0), blk, "fresh disk should be zeroed")

	require.NoError(t, d.Write(3, mkBlock(7)))
	require.NoError(t, d.Write(4, mkBlock(8)))

	blk, err = d.Read(3)
	require.NoError(t, err)
	assert.Equal(mkBlock(7), blk)

	buf := NewBlock()
	require.NoError(t, d.ReadTo(4, buf))
	assert.Equal(mkBlock(8), buf)

	_, err = d.Read(8)
	assert.True(errors.Is(err, ErrOutOfBounds), "read past end: %v", err)
	err = d.Write(8, mkBlock(1))
	assert.True(errors.Is(err, ErrOutOfBounds), "write past end: %v", err)
	err = d.Write(0, make(Block, 10))
	assert.True(errors.Is(err, ErrBadBlockSize), "short buffer: %v", err)

	assert.NoError(d.Barrier())
}

func TestMemDisk(t *testing.T) {
	testReadWrite(t, NewMemDisk(8))
}

func TestFileDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	d, err := NewFileDisk(path, 8)
	require.NoError(t, err)
	testReadWrite(t, d)
	require.NoError(t, d.Close())

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(8*BlockSize), st.Size())

	// contents survive reopening
	d, err = NewFileDisk(path, 8)
	require.NoError(t, err)
	defer d.Close()
	blk, err := d.Read(3)
	require.NoError(t, err)
	assert.Equal(t, mkBlock(7), blk)
}
