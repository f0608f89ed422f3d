package blobstore

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// fakeS3 answers the object operations used by S3Store without network access.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]string // key -> content type
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	empty := io.NopCloser(bytes.NewReader(nil))

	f.mu.Lock()
	defer f.mu.Unlock()
	switch req.Method {
	case http.MethodPut:
		_, _ = io.ReadAll(req.Body)
		f.objects[key] = req.Header.Get("Content-Type")
		return &http.Response{StatusCode: http.StatusOK, Body: empty, Header: http.Header{"ETag": {"\"etag\""}}}, nil
	case http.MethodDelete:
		delete(f.objects, key)
		return &http.Response{StatusCode: http.StatusNoContent, Body: empty, Header: http.Header{}}, nil
	}
	return &http.Response{StatusCode: http.StatusNotImplemented, Body: empty, Header: http.Header{}}, nil
}

func newFakeS3Store(t *testing.T) (*S3Store, *fakeS3) {
	t.Helper()
	rt := &fakeS3{objects: make(map[string]string)}
	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: rt}
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String("https://mock.s3.local")
	})
	return newS3Store(client, "clinic-media"), rt
}

func TestS3Store_PutPresignRoundTrip(t *testing.T) {
	s, fake := newFakeS3Store(t)
	ctx := context.Background()

	path, err := s.PutObject(ctx, "patients/p1/photo/abc.jpg", strings.NewReader("jpeg"), "image/jpeg")
	if err != nil {
		t.Fatalf("PutObject: %v", err)
	}
	if path != "patients/p1/photo/abc.jpg" {
		t.Errorf("unexpected key %q", path)
	}
	if ct, ok := fake.objects[path]; !ok || ct != "image/jpeg" {
		t.Errorf("object not stored with content type: %v %q", ok, ct)
	}

	u, err := s.PresignGet(ctx, path, 10*time.Minute)
	if err != nil {
		t.Fatalf("PresignGet: %v", err)
	}
	if !strings.Contains(u, "X-Amz-Signature=") || !strings.Contains(u, "X-Amz-Expires=600") {
		t.Errorf("expected presigned URL with 600s expiry, got %s", u)
	}
	got, ok := s.StablePathFromURL(u)
	if !ok || got != path {
		t.Errorf("StablePathFromURL = %q, %v; want %q", got, ok, path)
	}
}

func TestS3Store_StablePathFromURL(t *testing.T) {
	s, _ := newFakeS3Store(t)
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"https://clinic-media.s3.us-east-1.amazonaws.com/patients/p1/a.jpg?X-Amz-Signature=x", "patients/p1/a.jpg", true},
		{"https://s3.us-east-1.amazonaws.com/clinic-media/patients/p1/a.jpg", "patients/p1/a.jpg", true},
		{"https://s3.us-east-1.amazonaws.com/other-bucket/patients/p1/a.jpg", "", false},
		{"https://clinic-media.s3.amazonaws.com/", "", false},
		{"patients/p1/a.jpg", "", false},
		{"ftp://clinic-media.host/a.jpg", "", false},
	}
	for _, tt := range tests {
		got, ok := s.StablePathFromURL(tt.raw)
		if ok != tt.ok || got != tt.want {
			t.Errorf("StablePathFromURL(%q) = %q, %v; want %q, %v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestS3Store_Delete(t *testing.T) {
	s, fake := newFakeS3Store(t)
	ctx := context.Background()
	path, _ := s.PutObject(ctx, "patients/p1/document/d.pdf", strings.NewReader("%PDF"), "application/pdf")
	if err := s.Delete(ctx, path); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := fake.objects[path]; ok {
		t.Error("expected object to be removed")
	}
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	if _, err := NewS3Store(context.Background(), S3Config{}); err == nil {
		t.Error("expected error without bucket")
	}
}
