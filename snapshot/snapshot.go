// Package snapshot copies whole device images to and from an object store.
//
// Images are raw block dumps, so the volume must be unmounted while a
// snapshot is taken or restored.
package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mit-pdos/go-nanofs/disk"
	"github.com/mit-pdos/go-nanofs/util"
)

var ErrSizeMismatch = errors.New("image size does not match device")

// Push uploads every block of d as one object.
func Push(ctx context.Context, d disk.Disk, store ObjectStore, bucket, key string) error {
	nblks, err := d.Size()
	if err != nil {
		return fmt.Errorf("device size: %w", err)
	}
	var image bytes.Buffer
	image.Grow(int(nblks * disk.BlockSize))
	blk := disk.NewBlock()
	for a := uint64(0); a < nblks; a++ {
		if err := d.ReadTo(a, blk); err != nil {
			return fmt.Errorf("reading block %d: %w", a, err)
		}
		image.Write(blk)
	}
	util.DPrintf(1, "Push: %d blocks to %s/%s\n", nblks, bucket, key)
	return store.PutObject(ctx, bucket, key, bytes.NewReader(image.Bytes()))
}

// Pull overwrites d with the object at bucket/key. The object must be exactly
// as long as the device; nothing is written otherwise.
func Pull(ctx context.Context, d disk.Disk, store ObjectStore, bucket, key string) error {
	nblks, err := d.Size()
	if err != nil {
		return fmt.Errorf("device size: %w", err)
	}
	want := nblks * disk.BlockSize
	body, err := store.GetObject(ctx, bucket, key)
	if err != nil {
		return err
	}
	defer body.Close()

	image, err := io.ReadAll(io.LimitReader(body, int64(want)+1))
	if err != nil {
		return fmt.Errorf("reading object: %w", err)
	}
	if uint64(len(image)) != want {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrSizeMismatch, len(image), want)
	}
	for a := uint64(0); a < nblks; a++ {
		off := a * disk.BlockSize
		if err := d.Write(a, image[off:off+disk.BlockSize]); err != nil {
			return fmt.Errorf("writing block %d: %w", a, err)
		}
	}
	util.DPrintf(1, "Pull: %d blocks from %s/%s\n", nblks, bucket, key)
	if err := d.Barrier(); err != nil {
		return fmt.Errorf("barrier: %w", err)
	}
	return nil
}
