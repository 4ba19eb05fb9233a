package holder

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
)

// DiskAssetStore keeps reference bytes under dir/<userId>/<uuid>.jpg.
type DiskAssetStore struct {
	dir string
}

func NewDiskAssetStore(dir string) *DiskAssetStore {
	return &DiskAssetStore{dir: dir}
}

func (d *DiskAssetStore) userDir(userId int64) string {
	return filepath.Join(d.dir, strconv.FormatInt(userId, 10))
}

func (d *DiskAssetStore) path(userId int64, handle string) (string, error) {
	if handle != filepath.Base(handle) {
		return "", fmt.Errorf("invalid asset handle: %q", handle)
	}
	return filepath.Join(d.userDir(userId), handle), nil
}

func (d *DiskAssetStore) Save(userId int64, data []byte) (string, error) {
	if err := os.MkdirAll(d.userDir(userId), 0o755); err != nil {
		return "", fmt.Errorf("creating asset dir: %w", err)
	}

	handle := uuid.NewString() + ".jpg"
	path, err := d.path(userId, handle)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing asset: %w", err)
	}
	return handle, nil
}

func (d *DiskAssetStore) Load(userId int64, handle string) ([]byte, error) {
	path, err := d.path(userId, handle)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading asset: %w", err)
	}
	return data, nil
}

func (d *DiskAssetStore) Delete(userId int64, handle string) error {
	path, err := d.path(userId, handle)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing asset: %w", err)
	}
	return nil
}
