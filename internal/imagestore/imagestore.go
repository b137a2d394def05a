package imagestore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrEmptyFile   = errors.New("empty file")
	ErrNotAnImage  = errors.New("file is not an image")
	ErrInvalidPath = errors.New("invalid file id")
)

// readImage buffers the upload and sniffs its content type.
func readImage(r io.Reader) ([]byte, string, error) {
	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if buf.Len() == 0 {
		return nil, "", ErrEmptyFile
	}
	contentType := http.DetectContentType(buf.Bytes())
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", fmt.Errorf("%w: %s", ErrNotAnImage, contentType)
	}
	return buf.Bytes(), contentType, nil
}

// objectKey builds folder/<uuid><ext> keeping the original extension.
func objectKey(folder, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	name := uuid.NewString() + ext
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}
