package app

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"rentcomps/internal/adapters/observability"
	"rentcomps/internal/domain"
	"rentcomps/internal/pricing"
)

// Padder tops up a thin live panel. The synthetic provider implements it.
type Padder interface {
	Pad(ctx context.Context, q domain.Query, n int) []domain.Comp
}

type AnalyzeRequest struct {
	UnitID             string         `json:"unit_id"`
	LandlordID         string         `json:"landlord_id"`
	Query              domain.Query   `json:"query"`
	Subject            domain.Subject `json:"subject"`
	RenewalProbability *float64       `json:"renewal_probability,omitempty"`
}

func (r AnalyzeRequest) Validate() error {
	var problems []string
	q, s := r.Query, r.Subject
	if !q.HasGeocode && strings.TrimSpace(q.City) == "" && strings.TrimSpace(q.Address) == "" {
		problems = append(problems, "query needs coordinates, a city or an address")
	}
	if q.HasGeocode && (math.Abs(q.Lat) > 90 || math.Abs(q.Lon) > 180) {
		problems = append(problems, "coordinates out of range")
	}
	if q.RadiusKm < 0 || q.RadiusKm > 50 {
		problems = append(problems, "radius_km must be within 0..50")
	}
	if s.Bedrooms < 0 || s.Bedrooms > 20 {
		problems = append(problems, "bedrooms must be within 0..20")
	}
	if s.Rent < 0 || math.IsNaN(s.Rent) || math.IsInf(s.Rent, 0) || (s.Rent > 0 && !domain.ValidRent(s.Rent)) {
		problems = append(problems, "rent out of range")
	}
	if s.AreaSqm != nil && (*s.AreaSqm <= 0 || *s.AreaSqm > 5000) {
		problems = append(problems, "area_sqm out of range")
	}
	if p := r.RenewalProbability; p != nil && (*p < 0 || *p > 1) {
		problems = append(problems, "renewal_probability must be within 0..1")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

type AnalysisResponse struct {
	ID        string              `json:"id"`
	UnitID    string              `json:"unit_id,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	Bundle    domain.ResultBundle `json:"bundle"`
	Analysis  domain.Analysis     `json:"analysis"`
	Narrative domain.Narrative    `json:"narrative"`
	Alerts    []domain.Alert      `json:"alerts"`
}

type ServiceOptions struct {
	MinUsefulComps int // 0 disables padding
	BundleTTL      time.Duration
	Now            domain.Clock
	NewID          func() string
}

// AnalysisService runs one pricing analysis end to end: locate, fetch, pad, analyze,
// narrate, alert, persist.
type AnalysisService struct {
	chain    *Chain
	engine   *pricing.Engine
	geo      domain.Geocoder           // optional
	narrator domain.Narrator           // optional
	repo     domain.AnalysisRepository // optional
	cache    domain.Cache              // optional
	opts     ServiceOptions
}

func NewAnalysisService(
	chain *Chain,
	engine *pricing.Engine,
	geo domain.Geocoder,
	narrator domain.Narrator,
	repo domain.AnalysisRepository,
	cache domain.Cache,
	opts ServiceOptions,
) *AnalysisService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.BundleTTL <= 0 {
		opts.BundleTTL = 30 * time.Minute
	}
	return &AnalysisService{
		chain: chain, engine: engine, geo: geo, narrator: narrator,
		repo: repo, cache: cache, opts: opts,
	}
}

func (s *AnalysisService) Analyze(ctx context.Context, req AnalyzeRequest) (AnalysisResponse, error) {
	req.Query = syncQuery(req.Query, req.Subject)
	if err := req.Validate(); err != nil {
		return AnalysisResponse{}, err
	}
	now := s.opts.Now()

	// 1) Coordinates. A failed lookup degrades to neutral distances.
	q, geoWarn := s.locate(ctx, req.Query)

	// 2-3) Comps from the first available provider, falling back to the synthetic panel.
	bundle, err := s.fetch(ctx, q)
	if err != nil {
		return AnalysisResponse{}, err
	}
	bundle.AddWarning(geoWarn)

	// 4-5) Pad thin live panels; flag whatever is still thin.
	s.pad(ctx, q, &bundle)
	if want := s.opts.MinUsefulComps; want > 0 && len(bundle.Comps) < want {
		bundle.AddWarning(fmt.Sprintf("low sample size: %d comps (want %d)", len(bundle.Comps), want))
	}

	// 6) Numbers.
	analysis := s.engine.Analyze(bundle.Comps, req.Subject, pricing.Options{
		Live:               bundle.Live,
		Now:                now,
		RenewalProbability: req.RenewalProbability,
	})
	observability.ObserveAnalysis(bundle.DataSource, string(analysis.Hedonic.Method))

	// 7) Words.
	narrative := s.narrate(ctx, domain.NarrativeInput{
		Subject:  req.Subject,
		Query:    q,
		Bundle:   bundle.Digest(),
		Analysis: analysis,
	})

	resp := AnalysisResponse{
		ID:        s.opts.NewID(),
		UnitID:    req.UnitID,
		CreatedAt: now.UTC(),
		Bundle:    bundle,
		Analysis:  analysis,
		Narrative: narrative,
	}

	// 8) Alerts.
	resp.Alerts = deriveAlerts(resp, req)

	// 9) Persist. Best effort.
	s.persist(ctx, req, resp)
	return resp, nil
}

// syncQuery makes the search describe the subject unit.
func syncQuery(q domain.Query, s domain.Subject) domain.Query {
	q.Bedrooms = s.Bedrooms
	if q.Bathrooms == nil {
		q.Bathrooms = s.Bathrooms
	}
	if q.PropertyType == nil && s.PropertyType != "" {
		pt := s.PropertyType
		q.PropertyType = &pt
	}
	return q
}

func (s *AnalysisService) locate(ctx context.Context, q domain.Query) (domain.Query, string) {
	if q.HasGeocode {
		return q, ""
	}
	if s.geo == nil {
		return q, "no coordinates; distances use a neutral default"
	}
	c, err := s.geo.Geocode(ctx, q.Address, q.City, q.Country)
	if err != nil {
		log.Warn().Err(err).Str("city", q.City).Msg("geocoding failed")
		return q, "geocoding failed; distances use a neutral default"
	}
	return q.WithCoords(c), ""
}

func bundleKey(q domain.Query) string {
	b, _ := json.Marshal(q)
	sum := sha1.Sum(b)
	return "bundle:" + hex.EncodeToString(sum[:])
}

func (s *AnalysisService) fetch(ctx context.Context, q domain.Query) (domain.ResultBundle, error) {
	key := bundleKey(q)
	if s.cache != nil {
		var b domain.ResultBundle
		if ok, _ := s.cache.Get(ctx, key, &b); ok {
			return b, nil
		}
	}

	p := s.chain.Provider(ctx, q)
	b, err := p.FetchComps(ctx, q)
	if err != nil {
		if ctx.Err() != nil {
			return domain.ResultBundle{}, ctx.Err()
		}
		log.Warn().Err(err).Str("provider", p.Name()).Msg("provider failed; using fallback")
		fb, ferr := s.chain.Fallback().FetchComps(ctx, q)
		if ferr != nil {
			return domain.ResultBundle{}, errors.Join(err, ferr)
		}
		fb.AddWarning("live sources failed: " + err.Error())
		return fb, nil
	}

	if s.cache != nil && b.Live {
		_ = s.cache.Set(ctx, key, b, int(s.opts.BundleTTL.Seconds()))
	}
	return b, nil
}

func (s *AnalysisService) pad(ctx context.Context, q domain.Query, b *domain.ResultBundle) {
	want := s.opts.MinUsefulComps
	if !b.Live || want <= 0 || len(b.Comps) >= want {
		return
	}
	padder, ok := s.chain.Fallback().(Padder)
	if !ok {
		return
	}
	extra := padder.Pad(ctx, q, want-len(b.Comps))
	if len(extra) == 0 {
		return
	}
	live := len(b.Comps)
	b.Comps = append(append([]domain.Comp(nil), b.Comps...), extra...)
	b.DataSource += "+" + domain.DataSourceFallback
	b.AddWarning(fmt.Sprintf("only %d live comps; padded with %d synthetic comps", live, len(extra)))
}

func (s *AnalysisService) narrate(ctx context.Context, in domain.NarrativeInput) domain.Narrative {
	if s.narrator != nil {
		n, err := s.narrator.Narrate(ctx, in)
		if err == nil {
			err = n.Validate()
		}
		if err == nil {
			n.Source = domain.NarrativeLLM
			observability.ObserveNarrative(n.Source)
			return n
		}
		log.Warn().Err(err).Msg("narrative failed; using fallback")
	}
	n := FallbackNarrative(in.Subject, in.Bundle, in.Analysis)
	observability.ObserveNarrative(n.Source)
	return n
}

func (s *AnalysisService) persist(ctx context.Context, req AnalyzeRequest, resp AnalysisResponse) {
	if s.repo == nil {
		return
	}
	rec, err := toRecord(req, resp)
	if err == nil {
		err = s.repo.SaveAnalysis(ctx, rec)
	}
	if err != nil {
		log.Error().Err(err).Str("unit_id", req.UnitID).Str("analysis_id", resp.ID).Msg("persist analysis")
		return
	}
	if s.cache != nil && req.UnitID != "" {
		_ = s.cache.Del(ctx, historyKey(req.UnitID))
	}
}
