// Package blobstore stores binary media under stable, storage-relative paths
// and hands out short-lived access URLs for them. Callers persist only the
// path; URLs are derived per read.
package blobstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

var (
	ErrNotFound     = errors.New("blob not found")
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
	ErrInvalidPath  = errors.New("invalid blob path")
)

// MaxObjectSize bounds a single upload (25 MB).
const MaxObjectSize = 25 * 1024 * 1024

// Store is the asset store consumed by the media resolver.
type Store interface {
	// PutObject writes r at path and returns the stable path.
	PutObject(ctx context.Context, path string, r io.Reader, contentType string) (string, error)
	// PresignGet returns a read URL for path valid for ttl.
	PresignGet(ctx context.Context, path string, ttl time.Duration) (string, error)
	// StablePathFromURL extracts the stable path from an access URL issued by
	// this store. It reports false when raw was not issued by the store.
	StablePathFromURL(raw string) (string, bool)
	Delete(ctx context.Context, path string) error
}

// IsAccessURL reports whether v looks like a fully-qualified URL rather than
// a storage-relative path.
func IsAccessURL(v string) bool {
	v = strings.TrimSpace(v)
	return strings.HasPrefix(v, "https://") || strings.HasPrefix(v, "http://")
}

// CleanPath validates a storage-relative path.
func CleanPath(p string) (string, error) {
	p = strings.TrimPrefix(strings.TrimSpace(p), "/")
	if p == "" || IsAccessURL(p) || strings.Contains(p, "..") || strings.ContainsAny(p, "?#\\") {
		return "", ErrInvalidPath
	}
	return p, nil
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxObjectSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxObjectSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}
