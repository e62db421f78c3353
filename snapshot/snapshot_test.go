package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/go-nanofs/disk"
)

type memObjectStore map[string][]byte

func (m memObjectStore) PutObject(ctx context.Context, bucket, key string, data io.ReadSeeker) error {
	b, err := ioutil.ReadAll(data)
	if err != nil {
		return err
	}
	m[bucket+"/"+key] = b
	return nil
}

func (m memObjectStore) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	b, ok := m[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", bucket, key, ErrObjectNotFound)
	}
	return ioutil.NopCloser(bytes.NewReader(b)), nil
}

func mkBlock(b byte) disk.Block {
	return bytes.Repeat([]byte{b}, int(disk.BlockSize))
}

func TestPushPull(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	store := memObjectStore{}

	src := disk.NewMemDisk(4)
	for a := uint64(0); a < 4; a++ {
		require.NoError(src.Write(a, mkBlock(byte(a+1))))
	}
	require.NoError(Push(ctx, src, store, "bkt", "img"))
	assert.Len(t, store["bkt/img"], int(4*disk.BlockSize))

	dst := disk.NewMemDisk(4)
	require.NoError(Pull(ctx, dst, store, "bkt", "img"))
	for a := uint64(0); a < 4; a++ {
		blk, err := dst.Read(a)
		require.NoError(err)
		assert.Equal(t, mkBlock(byte(a+1)), blk)
	}
}

func TestPullSizeMismatch(t *testing.T) {
	ctx := context.Background()
	store := memObjectStore{}
	require.NoError(t, Push(ctx, disk.NewMemDisk(4), store, "bkt", "img"))

	dst := disk.NewMemDisk(3)
	require.NoError(t, dst.Write(0, mkBlock(7)))
	assert.ErrorIs(t, Pull(ctx, dst, store, "bkt", "img"), ErrSizeMismatch)
	blk, _ := dst.Read(0)
	assert.Equal(t, mkBlock(7), blk, "device untouched")

	assert.ErrorIs(t, Pull(ctx, disk.NewMemDisk(5), store, "bkt", "img"), ErrSizeMismatch)
}

func TestPullMissing(t *testing.T) {
	err := Pull(context.Background(), disk.NewMemDisk(1), memObjectStore{}, "bkt", "nope")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

type fakeS3 struct {
	s3iface.S3API
	objects map[string][]byte
}

func (f *fakeS3) PutObjectWithContext(ctx aws.Context, in *s3.PutObjectInput,
	opts ...request.Option) (*s3.PutObjectOutput, error) {
	b, err := ioutil.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Bucket+"/"+*in.Key] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObjectWithContext(ctx aws.Context, in *s3.GetObjectInput,
	opts ...request.Option) (*s3.GetObjectOutput, error) {
	b, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "no such key", nil)
	}
	return &s3.GetObjectOutput{Body: ioutil.NopCloser(bytes.NewReader(b))}, nil
}

func TestS3ObjectStore(t *testing.T) {
	ctx := context.Background()
	store := &S3ObjectStore{Client: &fakeS3{objects: map[string][]byte{}}}

	src := disk.NewMemDisk(2)
	require.NoError(t, src.Write(1, mkBlock(9)))
	require.NoError(t, Push(ctx, src, store, "bkt", "nanofs/disk.dat"))

	dst := disk.NewMemDisk(2)
	require.NoError(t, Pull(ctx, dst, store, "bkt", "nanofs/disk.dat"))
	blk, _ := dst.Read(1)
	assert.Equal(t, mkBlock(9), blk)

	_, err := store.GetObject(ctx, "bkt", "missing")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
