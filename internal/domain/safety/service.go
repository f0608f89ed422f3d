package safety

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/apperr"
)

type Service struct {
	store  Store
	logger zerolog.Logger
}

func NewService(store Store, logger zerolog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Save validates payload, rewrites it with current field names and stores
// it.
func (s *Service) Save(ctx context.Context, patientID uuid.UUID, kind string, payload []byte) (Questionnaire, error) {
	q, err := Decode(kind, payload)
	if err != nil {
		return nil, err
	}
	canonical, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("encode %s questionnaire: %w", kind, err)
	}
	if err := s.store.Put(ctx, patientID, kind, canonical); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *Service) Get(ctx context.Context, patientID uuid.UUID, kind string) (Questionnaire, error) {
	if _, ok := legacyKeys[kind]; !ok {
		return nil, apperr.Validation("unknown questionnaire kind: %s", kind)
	}
	raw, err := s.store.Get(ctx, patientID, kind)
	if err != nil {
		return nil, err
	}
	return Decode(kind, raw)
}

// Sources loads the patient's questionnaires in merge order. A document that
// no longer decodes is logged and skipped.
func (s *Service) Sources(ctx context.Context, patientID uuid.UUID) ([]Source, error) {
	docs, err := s.store.List(ctx, patientID)
	if err != nil {
		return nil, err
	}
	var sources []Source
	for _, kind := range Kinds {
		raw, ok := docs[kind]
		if !ok {
			continue
		}
		q, err := Decode(kind, raw)
		if err != nil {
			s.logger.Warn().Err(err).Str("patient_id", patientID.String()).Str("kind", kind).
				Msg("skipping unreadable questionnaire")
			continue
		}
		sources = append(sources, q)
	}
	return sources, nil
}

// Tags returns the patient's merged safety tags.
func (s *Service) Tags(ctx context.Context, patientID uuid.UUID) ([]string, error) {
	sources, err := s.Sources(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return Aggregate(sources...), nil
}
