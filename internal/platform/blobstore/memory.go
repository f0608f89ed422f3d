package blobstore

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

type storedBlob struct {
	content     []byte
	contentType string
}

// MemoryStore is a thread-safe in-memory Store for development and tests.
// Its access URLs point at Handler and carry an HMAC signature and expiry.
type MemoryStore struct {
	mu      sync.RWMutex
	blobs   map[string]storedBlob
	baseURL string
	key     []byte
	now     func() time.Time
}

// NewMemoryStore returns a store whose URLs are rooted at baseURL, for
// example "http://localhost:8000/blobs".
func NewMemoryStore(baseURL string) *MemoryStore {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic(fmt.Sprintf("blobstore: generate signing key: %v", err))
	}
	return &MemoryStore{
		blobs:   make(map[string]storedBlob),
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		now:     time.Now,
	}
}

func (s *MemoryStore) PutObject(_ context.Context, path string, r io.Reader, contentType string) (string, error) {
	p, err := CleanPath(path)
	if err != nil {
		return "", err
	}
	data, err := readLimited(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.blobs[p] = storedBlob{content: data, contentType: contentType}
	s.mu.Unlock()
	return p, nil
}

func (s *MemoryStore) Get(_ context.Context, path string) ([]byte, string, error) {
	s.mu.RLock()
	b, ok := s.blobs[path]
	s.mu.RUnlock()
	if !ok {
		return nil, "", ErrNotFound
	}
	return b.content, b.contentType, nil
}

func (s *MemoryStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[path]; !ok {
		return ErrNotFound
	}
	delete(s.blobs, path)
	return nil
}

func (s *MemoryStore) sign(path string, expires int64) string {
	mac := hmac.New(sha256.New, s.key)
	fmt.Fprintf(mac, "%s\n%d", path, expires)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *MemoryStore) PresignGet(_ context.Context, path string, ttl time.Duration) (string, error) {
	s.mu.RLock()
	_, ok := s.blobs[path]
	s.mu.RUnlock()
	if !ok {
		return "", ErrNotFound
	}
	expires := s.now().Add(ttl).Unix()
	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("sig", s.sign(path, expires))
	return s.baseURL + "/" + (&url.URL{Path: path}).EscapedPath() + "?" + q.Encode(), nil
}

func (s *MemoryStore) StablePathFromURL(raw string) (string, bool) {
	if !strings.HasPrefix(raw, s.baseURL+"/") {
		return "", false
	}
	rest := strings.TrimPrefix(raw, s.baseURL+"/")
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	p, err := url.PathUnescape(rest)
	if err != nil || p == "" {
		return "", false
	}
	return p, true
}

// Handler serves objects behind signed URLs. Mount it at the path of baseURL
// with a trailing wildcard, e.g. e.GET("/blobs/*", store.Handler()).
func (s *MemoryStore) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		path, err := url.PathUnescape(c.Param("*"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid path")
		}
		expires, err := strconv.ParseInt(c.QueryParam("expires"), 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusForbidden, "missing expiry")
		}
		if !hmac.Equal([]byte(c.QueryParam("sig")), []byte(s.sign(path, expires))) {
			return echo.NewHTTPError(http.StatusForbidden, "invalid signature")
		}
		if s.now().Unix() > expires {
			return echo.NewHTTPError(http.StatusForbidden, "link expired")
		}
		data, contentType, err := s.Get(c.Request().Context(), path)
		if err != nil {
			return echo.NewHTTPError(http.StatusNotFound, "blob not found")
		}
		if contentType == "" {
			contentType = echo.MIMEOctetStream
		}
		return c.Stream(http.StatusOK, contentType, bytes.NewReader(data))
	}
}
