package app_test

import (
	"strings"
	"testing"

	"rentcomps/internal/app"
	"rentcomps/internal/domain"
)

func TestFallbackNarrative_Scenarios(t *testing.T) {
	a := domain.Analysis{
		Stats:      domain.MarketStats{Median: 980, P25: 900, P75: 1100, SubjectPercentile: 40, SampleSize: 8},
		Hedonic:    domain.HedonicResult{HedonicPrice: 1000, Method: domain.MethodSqmBedroom},
		Vacancy:    domain.VacancyAssessment{Score: 35, Band: "balanced"},
		Confidence: 0.8,
	}
	b := domain.BundleDigest{CompCount: 8, SourceLabel: "Spitogatos"}

	n := app.FallbackNarrative(domain.Subject{Rent: 950, Bedrooms: 2}, b, a)
	if err := n.Validate(); err != nil {
		t.Fatalf("fallback narrative invalid: %v", err)
	}
	want := map[string]float64{"conservative": 970, "market": 1000, "premium": 1050}
	for _, sc := range n.Scenarios {
		if want[sc.Label] != sc.Rent {
			t.Fatalf("scenario %s: got %v want %v", sc.Label, sc.Rent, want[sc.Label])
		}
	}
	if n.RecommendedRent != 1000 || n.Source != domain.NarrativeFallback {
		t.Fatalf("unexpected narrative: %+v", n)
	}
	if !strings.Contains(n.Summary, "40th percentile") || !strings.Contains(n.Recommendation, "below market") {
		t.Fatalf("summary/recommendation text: %q / %q", n.Summary, n.Recommendation)
	}
}

func TestFallbackNarrative_NoHedonicUsesMedian(t *testing.T) {
	a := domain.Analysis{Stats: domain.MarketStats{Median: 980, P25: 900, P75: 1100}}
	n := app.FallbackNarrative(domain.Subject{}, domain.BundleDigest{Warning: "low sample size: 1 comps (want 5)"}, a)
	if n.RecommendedRent != 980 {
		t.Fatalf("want median, got %v", n.RecommendedRent)
	}
	for _, sc := range n.Scenarios {
		if sc.Rent != 980 {
			t.Fatalf("scenario %s should sit on the median, got %v", sc.Label, sc.Rent)
		}
	}
	if !strings.Contains(n.Summary, "low sample size") {
		t.Fatalf("warning not surfaced: %q", n.Summary)
	}
	if err := n.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestFallbackNarrative_EmptyStillValid(t *testing.T) {
	n := app.FallbackNarrative(domain.Subject{}, domain.BundleDigest{}, domain.Analysis{})
	if err := n.Validate(); err != nil {
		t.Fatalf("empty input must still yield a complete narrative: %v", err)
	}
}
