package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"rentcomps/internal/domain"
)

const (
	highVacancyRisk = 70.0
	lowConfidence   = 0.5
)

// deriveAlerts flags what a landlord should look at after an analysis.
func deriveAlerts(resp AnalysisResponse, req AnalyzeRequest) []domain.Alert {
	a, rent := resp.Analysis, req.Subject.Rent
	alert := func(kind domain.AlertKind, msg string) domain.Alert {
		return domain.Alert{
			AnalysisID: resp.ID,
			UnitID:     req.UnitID,
			LandlordID: req.LandlordID,
			Kind:       kind,
			Message:    msg,
			CreatedAt:  resp.CreatedAt,
		}
	}

	out := []domain.Alert{}
	if rent > 0 && a.Stats.SampleSize > 0 {
		switch {
		case rent < a.Stats.P25:
			out = append(out, alert(domain.AlertBelowMarket,
				fmt.Sprintf("current rent %.0f is below the comp lower quartile %.0f", rent, a.Stats.P25)))
		case rent > a.Stats.P75:
			out = append(out, alert(domain.AlertAboveMarket,
				fmt.Sprintf("current rent %.0f is above the comp upper quartile %.0f", rent, a.Stats.P75)))
		}
	}
	if a.Vacancy.Score >= highVacancyRisk {
		out = append(out, alert(domain.AlertHighVacancyRisk,
			fmt.Sprintf("vacancy risk %.0f/100 (%s)", a.Vacancy.Score, a.Vacancy.Band)))
	}
	if a.Confidence < lowConfidence {
		out = append(out, alert(domain.AlertLowConfidence,
			fmt.Sprintf("estimate confidence is %.0f%%", a.Confidence*100)))
	}
	if strings.Contains(resp.Bundle.DataSource, domain.DataSourceFallback) {
		out = append(out, alert(domain.AlertSyntheticData,
			fmt.Sprintf("comps include synthetic estimates (%s)", resp.Bundle.SourceLabel)))
	}
	return out
}

func toRecord(req AnalyzeRequest, resp AnalysisResponse) (domain.AnalysisRecord, error) {
	bundle, err := json.Marshal(resp.Bundle)
	if err != nil {
		return domain.AnalysisRecord{}, fmt.Errorf("marshal bundle: %w", err)
	}
	hedonic, err := json.Marshal(resp.Analysis.Hedonic)
	if err != nil {
		return domain.AnalysisRecord{}, fmt.Errorf("marshal hedonic: %w", err)
	}
	a := resp.Analysis
	return domain.AnalysisRecord{
		ID:           resp.ID,
		UnitID:       req.UnitID,
		LandlordID:   req.LandlordID,
		CreatedAt:    resp.CreatedAt,
		DataSource:   resp.Bundle.DataSource,
		CompCount:    len(resp.Bundle.Comps),
		CurrentRent:  req.Subject.Rent,
		HedonicPrice: a.Hedonic.HedonicPrice,
		Method:       a.Hedonic.Method,
		Confidence:   a.Confidence,
		VacancyRisk:  a.Vacancy.Score,
		Median:       a.Stats.Median,
		BundleJSON:   bundle,
		HedonicJSON:  hedonic,
		Narrative:    resp.Narrative.Summary,
		Alerts:       resp.Alerts,
	}, nil
}
