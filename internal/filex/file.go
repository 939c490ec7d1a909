// Package filex holds small filesystem helpers for the CLI.
package filex

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// MaxUploadSize caps files read by ReadUpload.
const MaxUploadSize = 5 << 20

// EnsureParentDir creates the directory that will contain path. The local
// database holds a session token, so the directory is private to the user.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

// ReadUpload reads a file to be sent as a multipart part and returns its base
// name with the content. Files larger than MaxUploadSize are rejected.
func ReadUpload(path string) (string, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxUploadSize+1))
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) > MaxUploadSize {
		return "", nil, fmt.Errorf("%s exceeds %d bytes", path, MaxUploadSize)
	}
	return filepath.Base(path), data, nil
}
