package patient

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/domain/media"
	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/pkg/civil"
)

type Service struct {
	repo  Repository
	media *media.Service
}

func NewService(repo Repository, mediaSvc *media.Service) *Service {
	return &Service{repo: repo, media: mediaSvc}
}

// apply copies the non-nil fields of in onto p. The photo path is handled by
// the caller.
func apply(p *Patient, in Input) error {
	if in.FullName != nil {
		p.FullName = strings.TrimSpace(*in.FullName)
	}
	if p.FullName == "" {
		return apperr.Validation("full_name is required")
	}
	if in.BirthDate != nil {
		if strings.TrimSpace(*in.BirthDate) == "" {
			p.BirthDate = nil
		} else {
			d, err := civil.Parse(*in.BirthDate)
			if err != nil {
				return apperr.Validation("birth_date must be YYYY-MM-DD")
			}
			p.BirthDate = &d
		}
	}
	if in.Phone != nil {
		p.Phone = in.Phone
	}
	if in.Email != nil {
		p.Email = in.Email
	}
	if in.Address != nil {
		p.Address = in.Address
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in Input) (*Patient, error) {
	p := &Patient{}
	if err := apply(p, in); err != nil {
		return nil, err
	}
	p.PhotoPath = media.KeepStablePath("", in.PhotoPath, s.media.Resolver().Extractor())
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

// View loads a patient and resolves the photo for this request only.
func (s *Service) View(ctx context.Context, id uuid.UUID) (*View, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v := s.view(ctx, p)
	return &v, nil
}

func (s *Service) view(ctx context.Context, p *Patient) View {
	return View{Patient: *p, PhotoURL: s.media.Resolver().Resolve(ctx, p.PhotoPath)}
}

func (s *Service) List(ctx context.Context, name string, limit, offset int) ([]View, int, error) {
	patients, total, err := s.repo.List(ctx, strings.TrimSpace(name), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	views := make([]View, 0, len(patients))
	for _, p := range patients {
		views = append(views, s.view(ctx, p))
	}
	return views, total, nil
}

// Update applies in to the stored record. The photo path stays as stored
// unless in names a new stable path under this patient's prefix; an access
// URL is never written.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(p, in); err != nil {
		return nil, err
	}
	photo := media.KeepStablePath(p.PhotoPath, in.PhotoPath, s.media.Resolver().Extractor())
	if photo == "" || strings.HasPrefix(photo, "patients/"+p.ID.String()+"/") {
		p.PhotoPath = photo
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// SetPhoto stores a new profile photo and points the patient at it.
func (s *Service) SetPhoto(ctx context.Context, req media.UploadRequest) (*View, error) {
	if _, err := s.repo.GetByID(ctx, req.PatientID); err != nil {
		return nil, err
	}
	req.Kind = media.KindPhoto
	path, err := s.media.Store(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePhoto(ctx, req.PatientID, path); err != nil {
		return nil, err
	}
	return s.View(ctx, req.PatientID)
}
