package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"backend-hikinghelper/internal/catalog"
	"backend-hikinghelper/internal/logging"
	"backend-hikinghelper/internal/trail"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var catalogDir string

	rootCmd := &cobra.Command{
		Use:          "trailctl",
		Short:        "Browse and classify the trail catalog",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init(logging.Config{Level: "warn", Format: "console", Output: cmd.ErrOrStderr()})
		},
	}
	rootCmd.PersistentFlags().StringVar(&catalogDir, "catalog-dir", "", "directory of <region>.json files (bundled data when empty)")

	provider := func() *catalog.Provider { return catalog.NewProviderFromDir(catalogDir) }

	rootCmd.AddCommand(regionsCmd(provider))
	rootCmd.AddCommand(classifyCmd(provider))
	rootCmd.AddCommand(nearbyCmd(provider))
	return rootCmd
}

func regionsCmd(provider func() *catalog.Provider) *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "List regions with trail data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			codes, err := provider().Regions()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, code := range codes {
				fmt.Fprintf(w, "%s\t%s\n", code, trail.RegionName(code))
			}
			return w.Flush()
		},
	}
}

func classifyCmd(provider func() *catalog.Provider) *cobra.Command {
	var (
		prefs     trail.Preferences
		band      string
		query     string
		asJSON    bool
		regions   []string
		completed []int
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Split the catalog into recommended, easier and other trails",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs.ElevationBand, _ = trail.ParseElevationBand(band)
			prefs.SelectedRegions = regions
			prefs.CompletedTrailIDs = completed

			snap, err := provider().Ensure(cmd.Context(), regions)
			if err != nil {
				return err
			}
			tiers := trail.Classify(snap.Trails, prefs.Snapshot(), query)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(tiers)
			}
			return printTiers(cmd.OutOrStdout(), tiers, prefs)
		},
	}

	cmd.Flags().StringSliceVar(&regions, "regions", nil, "regions to include (codes or state names)")
	cmd.Flags().StringVar(&prefs.Difficulty, "difficulty", "Moderate", "preferred difficulty")
	cmd.Flags().Float64Var(&prefs.MinDistance, "min", 0, "minimum distance in miles")
	cmd.Flags().Float64Var(&prefs.MaxDistance, "max", 10, "maximum distance in miles")
	cmd.Flags().StringVar(&band, "band", "Moderate", "elevation band: Low, Moderate or High")
	cmd.Flags().StringVar(&query, "query", "", "search the other tier by name or region")
	cmd.Flags().IntSliceVar(&completed, "completed", nil, "completed trail ids")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func nearbyCmd(provider func() *catalog.Provider) *cobra.Command {
	var lat, lng, radius float64

	cmd := &cobra.Command{
		Use:   "nearby",
		Short: "List trails within a radius of a point",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if radius <= 0 {
				return fmt.Errorf("radius must be positive")
			}
			snap, err := provider().Ensure(cmd.Context(), nil)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, t := range catalog.Nearby(snap.Trails, lat, lng, radius) {
				fmt.Fprintf(w, "%d\t%s\t%s\t%.1f km\n", t.ID, t.Name, trail.NormalizeRegion(t.Region), t.DistanceKm)
			}
			return w.Flush()
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude")
	cmd.Flags().Float64Var(&radius, "radius", 50, "radius in kilometres")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}

func printTiers(out io.Writer, tiers trail.Tiers, prefs trail.Preferences) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	sections := []struct {
		title  string
		trails []trail.Trail
	}{
		{"Recommended", tiers.Recommended},
		{"Easier", tiers.Easier},
		{"Other", tiers.Other},
	}
	for _, s := range sections {
		fmt.Fprintf(w, "%s (%d)\n", s.title, len(s.trails))
		for _, t := range s.trails {
			mark := ""
			if prefs.IsCompleted(t.ID) {
				mark = "done"
			}
			fmt.Fprintf(w, "  %d\t%s\t%s\t%.1f mi\t%.0f ft\t%s\t%s\n",
				t.ID, t.Name, trail.NormalizeRegion(t.Region), t.DistanceMiles, t.ElevationGainFeet, t.DifficultyLevel, mark)
		}
	}
	return w.Flush()
}
