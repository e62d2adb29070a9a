package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"project-camp/api/models"

	"github.com/google/uuid"
)

// UploadStore writes uploaded files to a directory that is served under
// BaseURL + "/images/".
type UploadStore struct {
	Dir     string
	BaseURL string
}

// StoredFile describes a saved upload.
type StoredFile struct {
	Name      string
	LocalPath string
	URL       string
	MimeType  string
	Size      int64
}

func (s *UploadStore) Save(fh *multipart.FileHeader) (StoredFile, error) {
	src, err := fh.Open()
	if err != nil {
		return StoredFile{}, fmt.Errorf("opening upload %q: %w", fh.Filename, err)
	}
	defer src.Close()

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return StoredFile{}, fmt.Errorf("creating upload dir: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	name := uuid.New().String() + ext
	path := filepath.Join(s.Dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return StoredFile{}, fmt.Errorf("creating %s: %w", path, err)
	}

	size, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return StoredFile{}, fmt.Errorf("writing %s: %w", path, err)
	}

	mime := fh.Header.Get("Content-Type")
	if mime == "" {
		mime = "application/octet-stream"
	}

	return StoredFile{
		Name:      name,
		LocalPath: path,
		URL:       s.BaseURL + "/images/" + name,
		MimeType:  mime,
		Size:      size,
	}, nil
}

func (f StoredFile) Attachment() models.Attachment {
	return models.Attachment{URL: f.URL, MimeType: f.MimeType, Size: f.Size}
}

// Remove deletes the file behind a URL previously returned by Save. URLs that
// do not point into the store are ignored.
func (s *UploadStore) Remove(url string) error {
	name, ok := strings.CutPrefix(url, s.BaseURL+"/images/")
	if !ok || name == "" || strings.ContainsAny(name, `/\`) {
		return nil
	}
	if err := os.Remove(filepath.Join(s.Dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", name, err)
	}
	return nil
}
