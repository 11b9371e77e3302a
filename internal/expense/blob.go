package expense

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// BlobStore defines the interface for receipt file storage
type BlobStore interface {
	// Upload saves a file under key and returns a retrievable reference
	Upload(key string, data []byte) (string, error)

	// Get retrieves a file by reference
	Get(ref string) ([]byte, error)
}

// LocalBlobStore implements the BlobStore interface using the local filesystem
type LocalBlobStore struct {
	basePath string
}

// NewLocalBlobStore creates a new LocalBlobStore instance
func NewLocalBlobStore(basePath string) (*LocalBlobStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating blob directory: %w", err)
	}

	return &LocalBlobStore{
		basePath: basePath,
	}, nil
}

// Upload saves a file to local storage
func (l *LocalBlobStore) Upload(key string, data []byte) (string, error) {
	path := filepath.Join(l.basePath, key)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return key, nil
}

// Get retrieves a file from local storage
func (l *LocalBlobStore) Get(ref string) ([]byte, error) {
	fullPath := filepath.Join(l.basePath, filepath.Base(ref))
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

var (
	specialChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	multiSpace   = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up a filename by removing special characters and
// truncating length, so phone-generated names make usable blob keys
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filepath.Base(filename), ext)

	base = specialChars.ReplaceAllString(base, "")
	base = multiSpace.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	if base == "" {
		base = "receipt"
	}

	return base + ext
}
