package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

type localStore struct {
	root    string
	baseURL string
}

// NewLocalStore keeps objects under root/<bucket>/<key>; public URLs point at baseURL/files.
func NewLocalStore(root, baseURL string) (Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}

	return &localStore{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *localStore) path(bucket Bucket, key string) (string, error) {
	if _, ok := ParseBucket(string(bucket)); !ok {
		return "", fmt.Errorf("unknown bucket %q", bucket)
	}
	if !validKey(key) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.root, string(bucket), filepath.FromSlash(key)), nil
}

func (s *localStore) Put(ctx context.Context, bucket Bucket, key, contentType string, r io.Reader) (*Object, error) {
	p, err := s.path(bucket, key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, fmt.Errorf("create bucket dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	size, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("write object: %w", err)
	}

	if err := os.Rename(tmp.Name(), p); err != nil {
		return nil, fmt.Errorf("commit object: %w", err)
	}

	return &Object{
		Bucket:      bucket,
		Key:         key,
		ContentType: contentType,
		Size:        size,
		URL:         s.PublicURL(bucket, key),
	}, nil
}

func (s *localStore) Open(ctx context.Context, bucket Bucket, key string) (io.ReadCloser, *Object, error) {
	p, err := s.path(bucket, key)
	if err != nil {
		return nil, nil, ErrObjectNotFound
	}

	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open object: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("stat object: %w", err)
	}

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("detect content type: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("rewind object: %w", err)
	}

	return f, &Object{
		Bucket:      bucket,
		Key:         key,
		ContentType: mt.String(),
		Size:        info.Size(),
		URL:         s.PublicURL(bucket, key),
	}, nil
}

func (s *localStore) Delete(ctx context.Context, bucket Bucket, key string) error {
	p, err := s.path(bucket, key)
	if err != nil {
		return ErrObjectNotFound
	}

	err = os.Remove(p)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrObjectNotFound
	}
	return err
}

func (s *localStore) PublicURL(bucket Bucket, key string) string {
	if !bucket.Public() {
		return ""
	}
	return s.baseURL + "/files/" + string(bucket) + "/" + key
}
