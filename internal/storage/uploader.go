package storage

import (
	"context"
	"fmt"
	"io"
)

// Uploader validates files against a Rule before handing them to the Store.
type Uploader struct {
	store Store
}

func NewUploader(store Store) *Uploader {
	return &Uploader{store: store}
}

func (u *Uploader) Store() Store {
	return u.store
}

func (u *Uploader) Upload(ctx context.Context, bucket Bucket, prefix string, rule Rule, filename string, size int64, r io.Reader) (*Object, error) {
	data, contentType, err := rule.Validate(filename, size, r)
	if err != nil {
		return nil, err
	}

	obj, err := u.store.Put(ctx, bucket, NewKey(prefix, filename), contentType, reader(data))
	if err != nil {
		return nil, fmt.Errorf("put object: %w", err)
	}

	return obj, nil
}
