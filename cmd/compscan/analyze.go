package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"rentcomps/internal/app"
	"rentcomps/internal/domain"
)

type analyzeFlags struct {
	unit, city, country, address string
	lat, lon                     float64
	beds                         int
	baths, sqm, rent, radius     float64
	renewal                      float64
}

func newAnalyzeCmd(g *globalFlags) *cobra.Command {
	f := &analyzeFlags{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Fetch comps for one unit and print the analysis as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, deps, err := setup(g)
			if err != nil {
				return err
			}
			req := f.request(cmd)
			resp, err := deps.Analysis.Analyze(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("analyze: %w", err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.unit, "unit", "", "unit id (optional)")
	fl.StringVar(&f.city, "city", "", "city name")
	fl.StringVar(&f.country, "country", "", "country name or ISO code")
	fl.StringVar(&f.address, "address", "", "street address")
	fl.Float64Var(&f.lat, "lat", 0, "latitude (with --lon skips geocoding)")
	fl.Float64Var(&f.lon, "lon", 0, "longitude")
	fl.IntVar(&f.beds, "beds", 1, "bedrooms")
	fl.Float64Var(&f.baths, "baths", 0, "bathrooms")
	fl.Float64Var(&f.sqm, "sqm", 0, "floor area in square metres")
	fl.Float64Var(&f.rent, "rent", 0, "current monthly rent")
	fl.Float64Var(&f.radius, "radius", 0, "search radius in km (0 = default)")
	fl.Float64Var(&f.renewal, "renewal-prob", 0, "base renewal probability; enables the renewal simulator")
	return cmd
}

func (f *analyzeFlags) request(cmd *cobra.Command) app.AnalyzeRequest {
	changed := cmd.Flags().Changed
	q := domain.Query{
		Address:  f.address,
		City:     f.city,
		Country:  f.country,
		RadiusKm: f.radius,
	}
	if changed("lat") && changed("lon") {
		q = q.WithCoords(domain.Coords{Lat: f.lat, Lon: f.lon})
	}
	s := domain.Subject{Rent: f.rent, Bedrooms: f.beds}
	if changed("baths") {
		b := f.baths
		s.Bathrooms = &b
	}
	if changed("sqm") {
		a := f.sqm
		s.AreaSqm = &a
	}
	req := app.AnalyzeRequest{UnitID: f.unit, Query: q, Subject: s}
	if changed("renewal-prob") {
		p := f.renewal
		req.RenewalProbability = &p
	}
	return req
}
