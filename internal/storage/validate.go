package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const MaxUploadSize = 5 << 20

var (
	ErrFileTooLarge    = errors.New("file exceeds the 5MB size limit")
	ErrInvalidFileType = errors.New("invalid file type")
	ErrEmptyFile       = errors.New("file is empty")
)

// Rule lists the content types accepted for an upload, keyed by file extension.
type Rule struct {
	MaxSize int64
	Types   map[string]string
}

var ImageRule = Rule{
	MaxSize: MaxUploadSize,
	Types: map[string]string{
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".webp": "image/webp",
		".gif":  "image/gif",
	},
}

var ProofRule = Rule{
	MaxSize: MaxUploadSize,
	Types: map[string]string{
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".webp": "image/webp",
		".gif":  "image/gif",
		".pdf":  "application/pdf",
	},
}

// Validate reads the upload fully and checks its size, extension and sniffed content type.
// size is the client-declared length; -1 when unknown.
func (rule Rule) Validate(filename string, size int64, r io.Reader) ([]byte, string, error) {
	if size > rule.MaxSize {
		return nil, "", ErrFileTooLarge
	}

	ext := strings.ToLower(path.Ext(filename))
	want, ok := rule.Types[ext]
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidFileType, ext)
	}

	data, err := io.ReadAll(io.LimitReader(r, rule.MaxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > rule.MaxSize {
		return nil, "", ErrFileTooLarge
	}
	if len(data) == 0 {
		return nil, "", ErrEmptyFile
	}

	detected := mimetype.Detect(data)
	if !detected.Is(want) {
		return nil, "", fmt.Errorf("%w: content is %s", ErrInvalidFileType, detected.String())
	}

	return data, want, nil
}

func reader(data []byte) io.Reader {
	return bytes.NewReader(data)
}
