// Package covers stores uploaded cover images content-addressed by an MD5
// digest of their bytes, so identical uploads share one database row and one
// file on disk.
//
// MD5 is a dedup fingerprint here, not a security boundary; collisions at
// catalog scale are not a practical concern.
package covers

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"github.com/akulov/elib/internal/entities"
)

var (
	ErrEmptyUpload    = errors.New("uploaded cover file is empty")
	ErrUploadTooLarge = errors.New("uploaded cover file exceeds the size limit")
	ErrDisallowedMIME = errors.New("cover file type is not allowed")
)

// extByMIME resolves the usual cover types without consulting the platform
// MIME database.
var extByMIME = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Store persists cover files under a single directory and keeps the cover
// rows in sync with the files.
type Store struct {
	dir         string
	maxBytes    int64
	allowedMIME map[string]bool
}

// NewStore creates the covers directory if needed and returns a store.
func NewStore(dir string, maxBytes int64, allowedMIME []string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create covers dir: %w", err)
	}

	allowed := make(map[string]bool, len(allowedMIME))
	for _, m := range allowedMIME {
		allowed[strings.ToLower(m)] = true
	}

	return &Store{
		dir:         dir,
		maxBytes:    maxBytes,
		allowedMIME: allowed,
	}, nil
}

// Dir returns the covers directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Hash returns the hex content digest used for deduplication.
func Hash(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// Validate checks the upload constraints without touching storage.
func (s *Store) Validate(data []byte, mimeType string) error {
	if len(data) == 0 {
		return ErrEmptyUpload
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return ErrUploadTooLarge
	}
	if len(s.allowedMIME) > 0 && !s.allowedMIME[strings.ToLower(mimeType)] {
		return ErrDisallowedMIME
	}
	return nil
}

// Ingest deduplicates and persists an uploaded cover within the caller's
// transaction.
//
// If a cover row with the same content hash exists it is reused: no file
// write, no new row. Otherwise a row is inserted to obtain the id, the file
// is written atomically as {id}{ext} (temp file in the same directory, then
// rename), and the row's filename is updated. Any file error propagates so
// the enclosing transaction rolls the row back; no orphan metadata survives.
func (s *Store) Ingest(tx *gorm.DB, data []byte, mimeType, originalFilename string) (*entities.Cover, error) {
	if err := s.Validate(data, mimeType); err != nil {
		return nil, err
	}

	digest := Hash(data)

	var existing entities.Cover
	err := tx.Where("content_hash = ?", digest).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cover := &entities.Cover{
		Filename:    "__pending__",
		MimeType:    mimeType,
		ContentHash: digest,
	}
	if err := tx.Create(cover).Error; err != nil {
		return nil, fmt.Errorf("failed to create cover row: %w", err)
	}

	filename := fmt.Sprintf("%d%s", cover.ID, s.extensionFor(mimeType, originalFilename))
	if err := s.writeFile(filename, data); err != nil {
		return nil, fmt.Errorf("failed to write cover file: %w", err)
	}

	cover.Filename = filename
	if err := tx.Model(cover).Update("filename", filename).Error; err != nil {
		return nil, err
	}
	return cover, nil
}

// Release drops the cover row and its file once no book references it
// anymore. Called after a book delete, inside the same transaction. A missing
// file is logged and ignored.
func (s *Store) Release(tx *gorm.DB, coverID uint) error {
	var stillUsed int64
	err := tx.Model(&entities.Book{}).Where("cover_id = ?", coverID).Count(&stillUsed).Error
	if err != nil {
		return err
	}
	if stillUsed > 0 {
		return nil
	}

	var cover entities.Cover
	err = tx.First(&cover, coverID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := tx.Delete(&entities.Cover{}, coverID).Error; err != nil {
		return err
	}

	if cover.Filename != "" {
		path := filepath.Join(s.dir, cover.Filename)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("Could not remove cover file %s: %v", path, err)
		}
	}
	return nil
}

// extensionFor picks the file extension: MIME map first, then the original
// filename, then a generic binary extension.
func (s *Store) extensionFor(mimeType, originalFilename string) string {
	if ext, ok := extByMIME[strings.ToLower(mimeType)]; ok {
		return ext
	}
	if mimeType != "" {
		if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
			return exts[0]
		}
	}
	if ext := filepath.Ext(originalFilename); ext != "" {
		return ext
	}
	return ".bin"
}

// writeFile writes atomically: temp file in the covers directory, then
// rename. Concurrent page renders never observe a partial file.
func (s *Store) writeFile(filename string, data []byte) error {
	tmpFile, err := os.CreateTemp(s.dir, "cover_tmp_")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath) // no-op after a successful rename
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, filepath.Join(s.dir, filename))
}
