package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type MarketStats struct {
	Median            float64 `json:"median"`
	Mean              float64 `json:"mean"`
	P25               float64 `json:"p25"`
	P75               float64 `json:"p75"`
	AvgDaysOnMarket   float64 `json:"avg_days_on_market"`
	StdDev            float64 `json:"std_dev"`
	CV                float64 `json:"cv"`
	SubjectPercentile float64 `json:"subject_percentile"`
	SampleSize        int     `json:"sample_size"`
}

type HedonicMethod string

const (
	MethodSqmBedroom     HedonicMethod = "sqm+bedroom"
	MethodBedroomOnly    HedonicMethod = "bedroom_only"
	MethodWeightedMedian HedonicMethod = "weighted_median"
)

type CompAdjustment struct {
	CompID       string   `json:"comp_id"`
	RawRent      float64  `json:"raw_rent"`
	AdjustedRent float64  `json:"adjusted_rent"`
	Weight       float64  `json:"weight"`
	Bedrooms     int      `json:"bedrooms"`
	AreaSqm      *float64 `json:"area_sqm,omitempty"`
}

type HedonicResult struct {
	HedonicPrice          float64          `json:"hedonic_price"`
	PricePerSqm           *float64         `json:"price_per_sqm,omitempty"`
	BedroomAdjustedMedian float64          `json:"bedroom_adjusted_median"`
	SizeAdjustedPrice     *float64         `json:"size_adjusted_price,omitempty"`
	BedroomPremiumPct     float64          `json:"bedroom_premium_pct"`
	Method                HedonicMethod    `json:"method"`
	ModelConfidence       float64          `json:"model_confidence"`
	Breakdown             []CompAdjustment `json:"breakdown"`
}

type VacancyAssessment struct {
	Score              float64 `json:"score"`
	Band               string  `json:"band"`
	BaseScore          float64 `json:"base_score"`
	PricePenalty       float64 `json:"price_penalty"`
	SeasonalAdjustment float64 `json:"seasonal_adjustment"`
}

type ElasticityPoint struct {
	DeltaPct      float64 `json:"delta_pct"`
	Rent          float64 `json:"rent"`
	VacancyRisk   float64 `json:"vacancy_risk"`
	VacantMonths  float64 `json:"vacant_months"`
	AnnualRevenue float64 `json:"annual_revenue"`
	NetRevenue    float64 `json:"net_revenue"`
}

type RenewalScenario struct {
	IncreasePct        float64 `json:"increase_pct"`
	NewRent            float64 `json:"new_rent"`
	RenewalProbability float64 `json:"renewal_probability"`
	ChurnProbability   float64 `json:"churn_probability"`
	ExpectedRevenue    float64 `json:"expected_revenue"`
	Risk               string  `json:"risk"`
}

type RenewalResult struct {
	Scenarios                []RenewalScenario `json:"scenarios"`
	Recommended              RenewalScenario   `json:"recommended"`
	WorstCase                RenewalScenario   `json:"worst_case"`
	Top                      []RenewalScenario `json:"top"`
	RevenueDeltaVsNoIncrease float64           `json:"revenue_delta_vs_no_increase"`
	TurnoverCost             float64           `json:"turnover_cost"`
	VacancyBreakevenMonths   *float64          `json:"vacancy_breakeven_months,omitempty"` // nil when the recommendation is no increase
}

type Analysis struct {
	Stats      MarketStats       `json:"stats"`
	Hedonic    HedonicResult     `json:"hedonic"`
	Vacancy    VacancyAssessment `json:"vacancy"`
	Elasticity []ElasticityPoint `json:"elasticity"`
	Confidence float64           `json:"confidence"`
	Renewal    *RenewalResult    `json:"renewal,omitempty"`
}

type Scenario struct {
	Label     string  `json:"label"`
	Rent      float64 `json:"rent"`
	Rationale string  `json:"rationale"`
}

const (
	NarrativeLLM      = "llm"
	NarrativeFallback = "fallback"
)

type Narrative struct {
	Summary         string     `json:"summary"`
	Recommendation  string     `json:"recommendation"`
	RecommendedRent float64    `json:"recommended_rent"`
	Scenarios       []Scenario `json:"scenarios"`
	Source          string     `json:"source"`
}

// Validate reports ErrNarrativeMalformed when a required field is missing.
func (n Narrative) Validate() error {
	switch {
	case strings.TrimSpace(n.Summary) == "":
		return fmt.Errorf("%w: summary missing", ErrNarrativeMalformed)
	case strings.TrimSpace(n.Recommendation) == "":
		return fmt.Errorf("%w: recommendation missing", ErrNarrativeMalformed)
	case !(n.RecommendedRent > 0) || math.IsInf(n.RecommendedRent, 0):
		return fmt.Errorf("%w: recommended_rent must be positive", ErrNarrativeMalformed)
	case len(n.Scenarios) == 0:
		return fmt.Errorf("%w: no scenarios", ErrNarrativeMalformed)
	}
	for i, sc := range n.Scenarios {
		if strings.TrimSpace(sc.Label) == "" || !(sc.Rent > 0) {
			return fmt.Errorf("%w: scenario %d incomplete", ErrNarrativeMalformed, i)
		}
	}
	return nil
}

// NarrativeInput is the structured context handed to the narrative collaborator.
type NarrativeInput struct {
	Subject  Subject      `json:"subject"`
	Query    Query        `json:"query"`
	Bundle   BundleDigest `json:"bundle"`
	Analysis Analysis     `json:"analysis"`
}

// BundleDigest is a ResultBundle without its comp list.
type BundleDigest struct {
	DataSource  string  `json:"data_source"`
	SourceLabel string  `json:"source_label"`
	CompCount   int     `json:"comp_count"`
	RawCount    int     `json:"raw_count"`
	RadiusKm    float64 `json:"radius_km"`
	Warning     string  `json:"warning,omitempty"`
}

func (b ResultBundle) Digest() BundleDigest {
	return BundleDigest{
		DataSource:  b.DataSource,
		SourceLabel: b.SourceLabel,
		CompCount:   len(b.Comps),
		RawCount:    b.RawCount,
		RadiusKm:    b.RadiusKm,
		Warning:     b.Warning,
	}
}

type AlertKind string

const (
	AlertBelowMarket     AlertKind = "below_market"
	AlertAboveMarket     AlertKind = "above_market"
	AlertHighVacancyRisk AlertKind = "high_vacancy_risk"
	AlertLowConfidence   AlertKind = "low_confidence"
	AlertSyntheticData   AlertKind = "synthetic_data"
)

type Alert struct {
	AnalysisID string    `json:"analysis_id"`
	UnitID     string    `json:"unit_id"`
	LandlordID string    `json:"landlord_id"`
	Kind       AlertKind `json:"kind"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

type AnalysisRecord struct {
	ID           string        `json:"id"`
	UnitID       string        `json:"unit_id"`
	LandlordID   string        `json:"landlord_id"`
	CreatedAt    time.Time     `json:"created_at"`
	DataSource   string        `json:"data_source"`
	CompCount    int           `json:"comp_count"`
	CurrentRent  float64       `json:"current_rent"`
	HedonicPrice float64       `json:"hedonic_price"`
	Method       HedonicMethod `json:"method"`
	Confidence   float64       `json:"confidence"`
	VacancyRisk  float64       `json:"vacancy_risk"`
	Median       float64       `json:"median"`
	BundleJSON   []byte        `json:"-"`
	HedonicJSON  []byte        `json:"-"`
	Narrative    string        `json:"narrative,omitempty"`
	Alerts       []Alert       `json:"alerts,omitempty"`
}
