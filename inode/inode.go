package inode

import (
	"bytes"

	"github.com/tchajed/marshal"

	"github.com/mit-pdos/go-nanofs/common"
)

const nameOff uint64 = (4 + common.NumInodes) * 8

// Inode is the in-memory form of one inode-table record.
type Inode struct {
	Kind     common.Kind
	Size     uint64
	Direct   common.Bnum
	Indirect common.Bnum
	// Children is reserved for directory entries; nothing interprets it.
	Children [common.NumInodes]common.Inum
	Name     string
}

// MkFileInode returns an empty regular file with no blocks.
func MkFileInode(name string) Inode {
	return Inode{
		Kind:     common.KindFile,
		Direct:   common.NULLBNUM,
		Indirect: common.NULLBNUM,
		Name:     name,
	}
}

func (ip *Inode) InUse() bool {
	return ip.Kind.Valid() && ip.Name != ""
}

// ValidName reports whether name fits in the on-disk name field.
func ValidName(name string) bool {
	return name != "" &&
		uint64(len(name)) <= common.MaxNameLen &&
		!bytes.Contains([]byte(name), []byte{0})
}

func (ip *Inode) Encode() []byte {
	enc := marshal.NewEnc(common.INODESZ)
	enc.PutInt(uint64(ip.Kind))
	enc.PutInt(ip.Size)
	enc.PutInt(ip.Direct)
	enc.PutInt(ip.Indirect)
	enc.PutInts(ip.Children[:])
	data := enc.Finish()
	copy(data[nameOff:nameOff+common.MaxNameLen], ip.Name)
	return data
}

func Decode(data []byte) Inode {
	var ip Inode
	dec := marshal.NewDec(data)
	ip.Kind = common.Kind(dec.GetInt())
	ip.Size = dec.GetInt()
	ip.Direct = dec.GetInt()
	ip.Indirect = dec.GetInt()
	copy(ip.Children[:], dec.GetInts(common.NumInodes))
	name := data[nameOff : nameOff+common.NAMESZ]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	ip.Name = string(name)
	return ip
}
