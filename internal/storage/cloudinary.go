package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// cloudinaryStore maps each bucket to a Cloudinary folder.
type cloudinaryStore struct {
	cld        *cloudinary.Cloudinary
	httpClient *http.Client
}

func NewCloudinaryStore(cloudinaryURL string) (Store, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}

	return &cloudinaryStore{
		cld: cld,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

func publicID(bucket Bucket, key string) string {
	return string(bucket) + "/" + strings.TrimSuffix(key, path.Ext(key))
}

func (s *cloudinaryStore) Put(ctx context.Context, bucket Bucket, key, contentType string, r io.Reader) (*Object, error) {
	if !validKey(key) {
		return nil, fmt.Errorf("invalid object key %q", key)
	}

	res, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		PublicID:     publicID(bucket, key),
		ResourceType: "image",
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}

	obj := &Object{
		Bucket:      bucket,
		Key:         key,
		ContentType: contentType,
		Size:        int64(res.Bytes),
	}
	if bucket.Public() {
		obj.URL = res.SecureURL
	}
	return obj, nil
}

func (s *cloudinaryStore) deliveryURL(bucket Bucket, key string) (string, error) {
	img, err := s.cld.Image(publicID(bucket, key))
	if err != nil {
		return "", err
	}
	u, err := img.String()
	if err != nil {
		return "", err
	}
	return u + path.Ext(key), nil
}

func (s *cloudinaryStore) Open(ctx context.Context, bucket Bucket, key string) (io.ReadCloser, *Object, error) {
	u, err := s.deliveryURL(bucket, key)
	if err != nil {
		return nil, nil, fmt.Errorf("build delivery url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create fetch request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch object: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, nil, ErrObjectNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, nil, fmt.Errorf("fetch object: status=%d", resp.StatusCode)
	}

	return resp.Body, &Object{
		Bucket:      bucket,
		Key:         key,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
		URL:         s.PublicURL(bucket, key),
	}, nil
}

func (s *cloudinaryStore) Delete(ctx context.Context, bucket Bucket, key string) error {
	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID(bucket, key)})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	if res.Result == "not found" {
		return ErrObjectNotFound
	}
	return nil
}

func (s *cloudinaryStore) PublicURL(bucket Bucket, key string) string {
	if !bucket.Public() {
		return ""
	}
	u, err := s.deliveryURL(bucket, key)
	if err != nil {
		return ""
	}
	return u
}
