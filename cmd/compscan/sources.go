package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"rentcomps/internal/domain"
)

func newSourcesCmd(g *globalFlags) *cobra.Command {
	var city, country string
	var lat, lon float64
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List the provider chain and which providers serve a locale",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, deps, err := setup(g)
			if err != nil {
				return err
			}
			q := domain.Query{City: city, Country: country, Bedrooms: 1}
			if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon") {
				q = q.WithCoords(domain.Coords{Lat: lat, Lon: lon})
			}
			selected := deps.Chain.Provider(cmd.Context(), q)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PRIORITY\tPROVIDER\tAVAILABLE\tSELECTED")
			for i, p := range deps.Chain.Providers() {
				mark := ""
				if p == selected {
					mark = "*"
				}
				fmt.Fprintf(w, "%d\t%s\t%t\t%s\n", i+1, p.Name(), p.IsAvailable(cmd.Context(), q), mark)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&city, "city", "", "city name")
	cmd.Flags().StringVar(&country, "country", "", "country name or ISO code")
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude")
	return cmd
}
