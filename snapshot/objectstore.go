package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

var ErrObjectNotFound = errors.New("object not found")

type ObjectStore interface {
	PutObject(ctx context.Context, bucket, key string, data io.ReadSeeker) error
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

type S3ObjectStore struct {
	Client s3iface.S3API
}

func (os *S3ObjectStore) PutObject(
	ctx context.Context,
	bucket, key string,
	data io.ReadSeeker,
) error {
	if _, err := os.Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
		Body:   data,
	}); err != nil {
		return fmt.Errorf(
			"putting object in bucket `%s` at key `%s`: %w",
			bucket,
			key,
			err,
		)
	}
	return nil
}

func (os *S3ObjectStore) GetObject(
	ctx context.Context,
	bucket, key string,
) (io.ReadCloser, error) {
	rsp, err := os.Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		if err, ok := err.(awserr.Error); ok {
			if err.Code() == s3.ErrCodeNoSuchKey {
				return nil, fmt.Errorf(
					"bucket `%s` key `%s`: %w",
					bucket,
					key,
					ErrObjectNotFound,
				)
			}
		}
		return nil, fmt.Errorf(
			"getting object from bucket `%s` at key `%s`: %w",
			bucket,
			key,
			err,
		)
	}
	return rsp.Body, nil
}
