package hostiface

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/h2non/bimg"

	"bqm/internal/tool"
)

// LocalFiles implements FileOps directly against the host filesystem,
// the mode the queue manager runs in when it isn't fronted by the
// storage-backend abstraction the teacher's asset pipeline uses for
// object storage.
type LocalFiles struct{}

func NewLocalFiles() *LocalFiles { return &LocalFiles{} }

func (LocalFiles) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

func (LocalFiles) WriteFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

func (LocalFiles) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (LocalFiles) MkdirAll(dir string) error { return os.MkdirAll(dir, 0o755) }

func (LocalFiles) Remove(path string) error { return os.Remove(path) }

// Rename moves oldPath to newPath. os.Rename is atomic when both paths
// share a filesystem; when they don't (EXDEV, e.g. outputDir mounted
// elsewhere than the scratch dir), it falls back to copying the bytes
// across and unlinking the source, matching the rename-or-copy+unlink
// contract a Task relies on for its final write.
func (LocalFiles) Rename(oldPath, newPath string) error {
	if err := os.Rename(oldPath, newPath); err == nil {
		return nil
	} else if !errors.Is(err, syscall.EXDEV) {
		return err
	}
	data, err := os.ReadFile(oldPath)
	if err != nil {
		return fmt.Errorf("hostiface: cross-filesystem rename read %s: %w", oldPath, err)
	}
	if err := os.WriteFile(newPath, data, 0o644); err != nil {
		return fmt.Errorf("hostiface: cross-filesystem rename write %s: %w", newPath, err)
	}
	return os.Remove(oldPath)
}

// BimgEncoder implements ImageEncoder by asking libvips (via bimg) to
// re-encode a tool.Image in the format it currently carries.
type BimgEncoder struct{}

func NewBimgEncoder() *BimgEncoder { return &BimgEncoder{} }

var encoderFormats = map[string]bimg.ImageType{
	"jpeg": bimg.JPEG,
	"jpg":  bimg.JPEG,
	"png":  bimg.PNG,
	"webp": bimg.WEBP,
	"tiff": bimg.TIFF,
	"gif":  bimg.GIF,
	"heif": bimg.HEIF,
}

func (BimgEncoder) Encode(img tool.Image) ([]byte, error) {
	t, ok := encoderFormats[img.Format]
	if !ok {
		// Data is already bytes the pipeline hasn't re-typed; pass
		// through unchanged rather than guess a format.
		return img.Data, nil
	}
	out, err := bimg.NewImage(img.Data).Process(bimg.Options{Type: t})
	if err != nil {
		return nil, fmt.Errorf("hostiface: encode to %s: %w", img.Format, err)
	}
	return out, nil
}

// EnsureParentDir creates the destination directory for path if absent.
func EnsureParentDir(files FileOps, path string) error {
	return files.MkdirAll(filepath.Dir(path))
}
