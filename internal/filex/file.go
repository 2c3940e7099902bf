// Package filex contains filesystem helpers for the client: locating the
// data directory and loading image files for upload.
package filex

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxImageSize bounds files accepted by ReadImage.
const MaxImageSize = 10 << 20

var ErrNotAnImage = errors.New("file is not an image")

// EnsureDir creates dir (and parents) if needed and returns its absolute path.
// A relative dir is resolved against the working directory.
func EnsureDir(dir string) (string, error) {
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dir)
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// Image is a file loaded for upload together with its detected MIME type.
type Image struct {
	Path        string
	Data        []byte
	ContentType string
	Extension   string
}

// ReadImage loads path and checks by content sniffing that it is an image.
func ReadImage(path string) (*Image, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if fi.Size() > MaxImageSize {
		return nil, fmt.Errorf("%s is too large: %d bytes", path, fi.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: %s", ErrNotAnImage, mt.String())
	}

	return &Image{Path: path, Data: data, ContentType: mt.String(), Extension: mt.Extension()}, nil
}
