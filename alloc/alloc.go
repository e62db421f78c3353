package alloc

import (
	"sync"

	"github.com/mit-pdos/go-nanofs/util"
)

// Alloc uses a bit map to allocate and free numbers. Bit 0 of byte 0
// corresponds to number 0, bit 1 to 1, and so on; numbers at or beyond max
// are never handed out.
type Alloc struct {
	mu     *sync.Mutex
	max    uint64
	bitmap []byte
}

// MkAlloc takes ownership of bitmap, which must hold at least max bits.
func MkAlloc(bitmap []byte, max uint64) *Alloc {
	if uint64(len(bitmap))*8 < max {
		panic("MkAlloc: bitmap too small")
	}
	a := &Alloc{
		mu:     new(sync.Mutex),
		max:    max,
		bitmap: bitmap,
	}
	return a
}

// MkMaxAlloc returns an allocator with every number in [0, max) free.
func MkMaxAlloc(max uint64) *Alloc {
	return MkAlloc(make([]byte, util.RoundUp(max, 8)), max)
}

func (a *Alloc) Max() uint64 {
	return a.max
}

func (a *Alloc) isSet(n uint64) bool {
	return a.bitmap[n/8]&(1<<(n%8)) != 0
}

// MarkUsed sets bit n without scanning.
func (a *Alloc) MarkUsed(n uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n >= a.max {
		panic("MarkUsed")
	}
	a.bitmap[n/8] = a.bitmap[n/8] | (1 << (n % 8))
}

// AllocNum returns the lowest free number and marks it used. ok is false if
// every number is in use.
func (a *Alloc) AllocNum() (uint64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for n := uint64(0); n < a.max; n++ {
		if !a.isSet(n) {
			a.bitmap[n/8] = a.bitmap[n/8] | (1 << (n % 8))
			util.DPrintf(5, "AllocNum: %d\n", n)
			return n, true
		}
	}
	return 0, false
}

// FreeNum clears bit n. Freeing a free number is a no-op; an out-of-range n
// returns false and changes nothing.
func (a *Alloc) FreeNum(n uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n >= a.max {
		return false
	}
	a.bitmap[n/8] = a.bitmap[n/8] & ^(1 << (n % 8))
	util.DPrintf(5, "FreeNum: %d\n", n)
	return true
}

func (a *Alloc) IsUsed(n uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n >= a.max {
		return false
	}
	return a.isSet(n)
}

func popCnt(b byte) uint64 {
	var count uint64
	var x = b
	for i := uint64(0); i < 8; i++ {
		count += uint64(x & 1)
		x = x >> 1
	}
	return count
}

// NumFree counts the free numbers in [0, max). Padding bits at or beyond max
// are ignored.
func (a *Alloc) NumFree() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	var used uint64
	full := a.max / 8
	for _, b := range a.bitmap[:full] {
		used += popCnt(b)
	}
	if rem := a.max % 8; rem != 0 {
		used += popCnt(a.bitmap[full] & (1<<rem - 1))
	}
	return a.max - used
}

// Bytes exposes the underlying bitmap for persisting.
func (a *Alloc) Bytes() []byte {
	return a.bitmap
}
