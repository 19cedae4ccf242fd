package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/kelvins/geocoder"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/guajirawind/windops/internal/climate"
	"github.com/guajirawind/windops/internal/dateblock"
	"github.com/guajirawind/windops/internal/guajira"
)

var singleOpts struct {
	startDate string
	endDate   string
	window    windowFlags
	lat       float64
	lon       float64
	useGeo    bool
}

var singleCmd = &cobra.Command{
	Use:   "single <city>",
	Short: "Download one city's historical archive",
	Long: `Single downloads one city's records for a date range. Registered
municipalities need only their name; other places take explicit
--lat/--lon, or --geocode to resolve coordinates through the Google
geocoding API (requires a configured API key).`,
	Example: `  windops single riohacha --start-date 2024-01-01 --end-date 2024-06-30
  windops single "Cabo de la Vela" --lat 12.2072 --lon -72.1567
  windops single dibulla --geocode`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		singleOpts.window.apply(cmd.Flags())

		loc, err := cfg.Location()
		if err != nil {
			wrapFatalln("resolve timezone", err)
			return
		}

		city := guajira.Normalize(args[0])
		req := climate.SingleRequest{
			City:      city,
			StartHour: cfg.StartHour,
			EndHour:   cfg.EndHour,
			WindOnly:  cfg.WindOnly,
		}

		end := dateblock.Yesterday(time.Now(), loc)
		if singleOpts.endDate != "" {
			if end, err = dateblock.ParseDate(singleOpts.endDate); err != nil {
				wrapFatalln("parse --end-date", err)
				return
			}
		}
		start := end
		if singleOpts.startDate != "" {
			if start, err = dateblock.ParseDate(singleOpts.startDate); err != nil {
				wrapFatalln("parse --start-date", err)
				return
			}
		}
		req.StartDate = start.Format(dateblock.DateFormat)
		req.EndDate = end.Format(dateblock.DateFormat)

		switch {
		case cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon"):
			req.Lat, req.Lon = &singleOpts.lat, &singleOpts.lon

		case singleOpts.useGeo:
			if cfg.GeocoderAPIKey == "" {
				wrapFatalln("--geocode", fmt.Errorf("no geocoder API key configured"))
				return
			}
			geocoder.ApiKey = cfg.GeocoderAPIKey
			m, err := guajira.Resolve(city, guajira.Geocode)
			if err != nil {
				wrapFatalln("resolve city", err)
				return
			}
			req.Lat, req.Lon = &m.Latitude, &m.Longitude
			logger.Info("city resolved",
				zap.String("city", m.Name),
				zap.Float64("lat", m.Latitude),
				zap.Float64("lon", m.Longitude))
		}

		client := newClient()
		resp, err := client.SingleDownload(context.Background(), req)
		if err != nil {
			wrapFatalln("single download", err)
			return
		}

		if !resp.Success {
			wrapFatalln("single download", fmt.Errorf("%s: %s", resp.City, resp.Message))
			return
		}
		fmt.Printf("%s: %d rows (%s .. %s) -> %s\n",
			resp.City, resp.Rows, resp.StartDate, resp.EndDate, resp.SavedFile)
	},
}

func init() {
	singleCmd.Flags().StringVar(&singleOpts.startDate, "start-date", "", "range start, YYYY-MM-DD (default: yesterday)")
	singleCmd.Flags().StringVar(&singleOpts.endDate, "end-date", "", "range end, YYYY-MM-DD (default: yesterday)")
	addWindowFlags(singleCmd, &singleOpts.window)
	singleCmd.Flags().Float64Var(&singleOpts.lat, "lat", 0, "latitude for cities outside the registry")
	singleCmd.Flags().Float64Var(&singleOpts.lon, "lon", 0, "longitude for cities outside the registry")
	singleCmd.Flags().BoolVar(&singleOpts.useGeo, "geocode", false,
		"resolve unknown cities through the Google geocoding API")
	rootCmd.AddCommand(singleCmd)
}
