package inode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/go-nanofs/common"
)

func TestEncodeDecode(t *testing.T) {
	ip := MkFileInode("a.txt")
	ip.Size = 13
	ip.Direct = 5
	ip.Indirect = 9
	ip.Children[3] = 7

	data := ip.Encode()
	require.Len(t, data, int(common.INODESZ))
	assert.Equal(t, ip, Decode(data))
}

func TestZeroIsFree(t *testing.T) {
	ip := Decode(make([]byte, common.INODESZ))
	assert.Equal(t, Inode{}, ip)
	assert.False(t, ip.InUse())
	assert.Equal(t, common.NULLBNUM, ip.Direct)
}

func TestLongName(t *testing.T) {
	name := strings.Repeat("x", int(common.MaxNameLen))
	ip := MkFileInode(name)
	data := ip.Encode()
	assert.Equal(t, byte(0), data[nameOff+common.MaxNameLen], "name stays NUL terminated")
	assert.Equal(t, name, Decode(data).Name)
}

func TestValidName(t *testing.T) {
	assert := assert.New(t)
	assert.True(ValidName("a.txt"))
	assert.True(ValidName("dir/looking/name"), "names are flat; slashes are just bytes")
	assert.False(ValidName(""))
	assert.False(ValidName(strings.Repeat("x", int(common.MaxNameLen)+1)))
	assert.False(ValidName("a\x00b"))
}
