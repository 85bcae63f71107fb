package storage

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/fhuszti/media-cache-go/internal/model"
	"github.com/fhuszti/media-cache-go/internal/port"
	cacheService "github.com/fhuszti/media-cache-go/internal/usecase/cache"
)

// FsMediaFiles stores media bytes under <root>/<MEDIA_TYPE>/<hash>.<ext> with
// thumbnails in <root>/<MEDIA_TYPE>/thumbnails. The filesystem is injected so
// tests can run against an in-memory one.
type FsMediaFiles struct {
	fs   afero.Fs
	root string
}

// compile-time check: *FsMediaFiles must satisfy port.MediaFiles
var _ port.MediaFiles = (*FsMediaFiles)(nil)

func NewFsMediaFiles(fs afero.Fs, root string) *FsMediaFiles {
	return &FsMediaFiles{fs: fs, root: root}
}

func (f *FsMediaFiles) abs(relPath string) string {
	return filepath.Join(f.root, filepath.FromSlash(relPath))
}

func (f *FsMediaFiles) EnsureLayout() error {
	log.Printf("ensuring cache directory layout under %q...", f.root)

	for _, mt := range model.AllMediaTypes {
		dir := filepath.Join(f.root, mt.Upper(), "thumbnails")
		if err := f.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %q: %w", dir, err)
		}
	}
	return nil
}

func (f *FsMediaFiles) Stat(relPath string) (port.FileInfo, error) {
	info, err := f.fs.Stat(f.abs(relPath))
	if os.IsNotExist(err) {
		return port.FileInfo{}, cacheService.ErrFileNotFound
	}
	if err != nil {
		return port.FileInfo{}, fmt.Errorf("stat %q: %w", relPath, err)
	}
	if info.IsDir() {
		return port.FileInfo{}, cacheService.ErrFileNotFound
	}
	return port.FileInfo{SizeBytes: info.Size(), ModTime: info.ModTime()}, nil
}

func (f *FsMediaFiles) Read(relPath string) ([]byte, error) {
	data, err := afero.ReadFile(f.fs, f.abs(relPath))
	if os.IsNotExist(err) {
		return nil, cacheService.ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", relPath, err)
	}
	return data, nil
}

func (f *FsMediaFiles) Write(relPath string, data []byte) error {
	abs := f.abs(relPath)
	if err := f.fs.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("create parent of %q: %w", relPath, err)
	}
	if err := afero.WriteFile(f.fs, abs, data, 0o644); err != nil {
		return fmt.Errorf("write %q: %w", relPath, err)
	}
	return nil
}

func (f *FsMediaFiles) Remove(relPath string) error {
	err := f.fs.Remove(f.abs(relPath))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %q: %w", relPath, err)
	}
	return nil
}

func (f *FsMediaFiles) Wipe() error {
	log.Printf("wiping cache files under %q...", f.root)

	for _, mt := range model.AllMediaTypes {
		if err := f.fs.RemoveAll(filepath.Join(f.root, mt.Upper())); err != nil {
			return fmt.Errorf("wipe %q: %w", mt.Upper(), err)
		}
	}
	return f.EnsureLayout()
}
