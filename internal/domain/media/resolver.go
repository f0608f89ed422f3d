package media

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/blobstore"
	"github.com/clinic/clinic/internal/platform/telemetry"
)

// PathExtractor recognizes access URLs issued by an asset store.
type PathExtractor interface {
	StablePathFromURL(raw string) (string, bool)
}

// Resolver turns stable paths into short-lived access URLs. Every call asks
// the store for a fresh URL; nothing is cached.
type Resolver struct {
	store   blobstore.Store
	ttl     time.Duration
	logger  zerolog.Logger
	metrics *telemetry.Metrics
}

func NewResolver(store blobstore.Store, ttl time.Duration, logger zerolog.Logger, metrics *telemetry.Metrics) *Resolver {
	return &Resolver{store: store, ttl: ttl, logger: logger, metrics: metrics}
}

func (r *Resolver) Extractor() PathExtractor { return r.store }

// Resolve returns an access URL for ref, or "" when ref is empty or the store
// fails. A ref that is already a URL is reduced to its stable path first; if
// that is not possible the URL is returned as is.
func (r *Resolver) Resolve(ctx context.Context, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	path := ref
	if blobstore.IsAccessURL(ref) {
		p, ok := r.store.StablePathFromURL(ref)
		if !ok {
			return ref
		}
		path = p
	}
	u, err := r.store.PresignGet(ctx, path, r.ttl)
	if err != nil {
		r.logger.Error().
			Err(apperr.AssetResolutionFailed(err, path)).
			Str("path", path).
			Msg("media preview unavailable")
		r.metrics.AssetResolutionFailed()
		return ""
	}
	return u
}

// View resolves the preview of a single asset.
func (r *Resolver) View(ctx context.Context, a *Asset) View {
	return View{Asset: *a, PreviewURL: r.Resolve(ctx, a.StablePath)}
}

// KeepStablePath chooses the value to persist for a media field on update.
// A nil or blank supplied value keeps existing. A supplied access URL is
// reduced to its stable path, or ignored in favour of existing when it cannot
// be. Anything else replaces existing only when it is a clean relative path.
func KeepStablePath(existing string, supplied *string, ex PathExtractor) string {
	if supplied == nil {
		return existing
	}
	v := strings.TrimSpace(*supplied)
	if v == "" || v == existing {
		return existing
	}
	if blobstore.IsAccessURL(v) {
		if p, ok := ex.StablePathFromURL(v); ok {
			return p
		}
		return existing
	}
	p, err := blobstore.CleanPath(v)
	if err != nil {
		return existing
	}
	return p
}
