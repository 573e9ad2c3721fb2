// Package storage keeps uploaded files in named buckets behind a single Store interface.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

type Bucket string

const (
	BucketProductImages  Bucket = "product-images"
	BucketPaymentProofs  Bucket = "payment-proofs"
	BucketGiftCardImages Bucket = "gift-card-images"
)

var ErrObjectNotFound = errors.New("object not found")

func ParseBucket(name string) (Bucket, bool) {
	switch b := Bucket(name); b {
	case BucketProductImages, BucketPaymentProofs, BucketGiftCardImages:
		return b, true
	}
	return "", false
}

// Public reports whether objects of the bucket may be served to anyone.
func (b Bucket) Public() bool {
	return b != BucketPaymentProofs
}

type Object struct {
	Bucket      Bucket `json:"bucket"`
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	URL         string `json:"url,omitempty"`
}

type Store interface {
	Put(ctx context.Context, bucket Bucket, key, contentType string, r io.Reader) (*Object, error)
	Open(ctx context.Context, bucket Bucket, key string) (io.ReadCloser, *Object, error)
	Delete(ctx context.Context, bucket Bucket, key string) error
	// PublicURL is empty for private buckets.
	PublicURL(bucket Bucket, key string) string
}

// NewKey builds a collision-free object key under prefix, keeping the file extension.
func NewKey(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	key := uuid.NewString() + ext
	if prefix == "" {
		return key
	}
	return strings.Trim(prefix, "/") + "/" + key
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}
