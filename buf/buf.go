// buf manages sub-block disk objects, to be packed into disk blocks
package buf

import (
	"github.com/tchajed/marshal"

	"github.com/mit-pdos/go-nanofs/addr"
	"github.com/mit-pdos/go-nanofs/common"
	"github.com/mit-pdos/go-nanofs/disk"
	"github.com/mit-pdos/go-nanofs/util"
)

// A Buf holds a disk object (an inode, a run of bitmap bytes, or a disk
// block)
type Buf struct {
	Addr addr.Addr
	Sz   uint64 // number of bits
	Data []byte
}

func MkBuf(addr addr.Addr, sz uint64, data []byte) *Buf {
	b := &Buf{
		Addr: addr,
		Sz:   sz,
		Data: data,
	}
	return b
}

// Load the bits of a disk block into a new buf, as specified by addr
//
// The buf aliases blk.
func MkBufLoad(addr addr.Addr, sz uint64, blk disk.Block) *Buf {
	bytefirst := addr.Off / 8
	bytelast := (addr.Off + sz - 1) / 8
	data := blk[bytefirst : bytelast+1]
	b := &Buf{
		Addr: addr,
		Sz:   sz,
		Data: data,
	}
	return b
}

// Install bytes from src to dst.
func installBytes(src []byte, dst []byte, dstoff uint64, nbit uint64) {
	sz := nbit / 8
	copy(dst[dstoff/8:], src[:sz])
}

// Install the bytes of buf into blk. Objects must be byte-aligned and must
// not cross a block boundary.
func (buf *Buf) Install(blk disk.Block) {
	util.DPrintf(15, "%v: install\n", buf.Addr)
	if buf.Sz%8 != 0 || buf.Addr.Off%8 != 0 {
		panic("Install unsupported\n")
	}
	if buf.Addr.Off+buf.Sz > common.NBITBLOCK {
		panic("Install crosses block boundary\n")
	}
	installBytes(buf.Data, blk, buf.Addr.Off, buf.Sz)
}

// BnumGet reads the block reference stored at byte offset off.
func (buf *Buf) BnumGet(off uint64) common.Bnum {
	dec := marshal.NewDec(buf.Data[off : off+common.BnumSz])
	return common.Bnum(dec.GetInt())
}

// BnumPut stores a block reference at byte offset off.
func (buf *Buf) BnumPut(off uint64, v common.Bnum) {
	enc := marshal.NewEnc(common.BnumSz)
	enc.PutInt(uint64(v))
	copy(buf.Data[off:off+common.BnumSz], enc.Finish())
}
