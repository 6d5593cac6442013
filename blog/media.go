// blog/media.go
package blog

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
)

// MediaStore writes uploaded images under a local root and hands back the
// relative path stored on the post.
type MediaStore struct {
	Root string
}

func NewMediaStore(root string) (*MediaStore, error) {
	if err := os.MkdirAll(filepath.Join(root, "posts"), 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &MediaStore{Root: root}, nil
}

// SaveImage stores one uploaded file under posts/ with a uuid prefix so two
// uploads of the same filename never collide. The original filename is kept
// as a suffix.
func (m *MediaStore) SaveImage(file multipart.File, header *multipart.FileHeader) (string, error) {
	name := uuid.New().String() + "-" + filepath.Base(header.Filename)
	rel := path.Join("posts", name)
	dst, err := os.Create(filepath.Join(m.Root, "posts", name))
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("write image file: %w", err)
	}
	return rel, nil
}
