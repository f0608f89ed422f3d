package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/blobstore"
)

type Service struct {
	repo     Repository
	store    blobstore.Store
	resolver *Resolver
	logger   zerolog.Logger
}

func NewService(repo Repository, store blobstore.Store, resolver *Resolver, logger zerolog.Logger) *Service {
	return &Service{repo: repo, store: store, resolver: resolver, logger: logger}
}

func (s *Service) Resolver() *Resolver { return s.resolver }

type UploadRequest struct {
	PatientID   uuid.UUID
	Kind        string
	FileName    string
	ContentType string
	Body        io.Reader
	Caption     *string
	TakenOn     *time.Time
}

// StablePathFor builds "patients/<patient>/<kind>/<uuid><ext>". Only
// lowercase letters and digits survive from the client's extension; anything
// else falls back to the content type.
func StablePathFor(patientID uuid.UUID, kind, fileName, contentType string) string {
	ext := cleanExt(fileName)
	if ext == "" && contentType != "" {
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	return fmt.Sprintf("patients/%s/%s/%s%s", patientID, kind, uuid.New(), ext)
}

func cleanExt(fileName string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	if ext == "" || len(ext) > 10 {
		return ""
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return "." + ext
}

// Store writes the bytes of an upload and returns the stable path without
// recording an asset row. Patient photos and consent signatures use it.
func (s *Service) Store(ctx context.Context, req UploadRequest) (string, error) {
	if req.PatientID == uuid.Nil {
		return "", apperr.Validation("patient_id is required")
	}
	if !validKinds[req.Kind] {
		return "", apperr.Validation("invalid media kind: %s", req.Kind)
	}
	if req.Body == nil {
		return "", apperr.Validation("file is required")
	}
	path, err := s.store.PutObject(ctx, StablePathFor(req.PatientID, req.Kind, req.FileName, req.ContentType), req.Body, req.ContentType)
	if errors.Is(err, blobstore.ErrFileTooLarge) {
		return "", apperr.Validation("file exceeds the %d MB limit", blobstore.MaxObjectSize/(1024*1024))
	}
	if err != nil {
		return "", fmt.Errorf("store %s: %w", req.Kind, err)
	}
	return path, nil
}

// Upload stores the bytes and records the asset.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*Asset, error) {
	path, err := s.Store(ctx, req)
	if err != nil {
		return nil, err
	}
	a := &Asset{
		PatientID:  req.PatientID,
		Kind:       req.Kind,
		StablePath: path,
		Caption:    req.Caption,
		TakenOn:    req.TakenOn,
	}
	if req.ContentType != "" {
		ct := req.ContentType
		a.ContentType = &ct
	}
	if err := s.repo.Create(ctx, a); err != nil {
		if derr := s.store.Delete(ctx, path); derr != nil {
			s.logger.Warn().Err(derr).Str("path", path).Msg("orphaned media object")
		}
		return nil, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Asset, error) {
	return s.repo.GetByID(ctx, id)
}

// ListViews returns a patient's assets with previews resolved for this
// request.
func (s *Service) ListViews(ctx context.Context, patientID uuid.UUID, kind string) ([]View, error) {
	if kind != "" && !validKinds[kind] {
		return nil, apperr.Validation("invalid media kind: %s", kind)
	}
	assets, err := s.repo.ListByPatient(ctx, patientID, kind)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(assets))
	for _, a := range assets {
		views = append(views, s.resolver.View(ctx, a))
	}
	return views, nil
}

// Preview returns a fresh access URL for an asset. An empty string means the
// preview is unavailable.
func (s *Service) Preview(ctx context.Context, id uuid.UUID) (string, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return s.resolver.Resolve(ctx, a.StablePath), nil
}

// Delete removes the record first; a failure to delete the object afterwards
// only leaves an orphan behind and is logged.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, a.StablePath); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		s.logger.Warn().Err(err).Str("path", a.StablePath).Msg("orphaned media object")
	}
	return nil
}

// Discard removes an object written by Store that ended up unreferenced.
func (s *Service) Discard(ctx context.Context, path string) {
	if err := s.store.Delete(ctx, path); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		s.logger.Warn().Err(err).Str("path", path).Msg("orphaned media object")
	}
}
