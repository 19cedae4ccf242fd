package cli

import (
	"fmt"

	"github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/guajirawind/windops/internal/climate"
	"github.com/guajirawind/windops/internal/driver"
	"github.com/guajirawind/windops/internal/guajira"
)

func statusString(ok bool) string {
	if ok {
		return color.GreenString("ok")
	}
	return color.RedString("failed")
}

func renderReport(report driver.Report) {
	table := uitable.New()
	table.AddRow("BLOCK", "DAYS", "ROWS", "CITY ERRORS", "STATUS", "TOOK")
	for _, b := range report.Blocks {
		status := statusString(b.Err == nil)
		detail := len(b.Result.Failures())
		table.AddRow(b.Block.String(), b.Block.Days(), b.Result.TotalRows(), detail, status, units.HumanDuration(b.Elapsed))
	}
	fmt.Println(table)
	fmt.Printf("%d rows across %d blocks in %s\n",
		report.Rows(), len(report.Blocks), units.HumanDuration(report.Elapsed))
}

func renderFiles(files []string) {
	if len(files) == 0 {
		fmt.Println("no files reported")
		return
	}
	table := uitable.New()
	table.MaxColWidth = 100
	table.AddRow("FILE")
	for _, f := range files {
		table.AddRow(f)
	}
	fmt.Println(table)
}

func renderCityResults(results []climate.CityResult) {
	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow("CITY", "ROWS", "STATUS", "DETAIL")
	for _, r := range results {
		detail := r.File
		if r.Error != "" {
			detail = color.RedString(r.Error)
		} else if r.Message != "" {
			detail = r.Message
		}
		table.AddRow(r.City, r.Rows, statusString(r.Success), detail)
	}
	fmt.Println(table)
}

func renderUpdates(results []climate.UpdateResult) {
	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow("CITY", "NEW ROWS", "LAST TIMESTAMP", "STATUS", "DETAIL")
	for _, r := range results {
		detail := r.File
		if r.Error != "" {
			detail = color.RedString(r.Error)
		}
		table.AddRow(r.City, r.NewRows, r.LastTimestamp, statusString(r.Success), detail)
	}
	fmt.Println(table)
}

func renderStats(s climate.StatsResponse) {
	fmt.Print("   City: ")
	color.Set(color.FgMagenta)
	fmt.Println(s.City)
	color.Unset()
	fmt.Printf("Records: %d\n", s.Records)
	fmt.Printf("  Range: %s .. %s\n", s.DateRange.Start, s.DateRange.End)
	if s.WindStats != nil {
		table := uitable.New()
		table.AddRow("WIND km/h", "MEAN", "MAX", "MIN", "STD", "MEDIAN")
		table.AddRow("",
			fmt.Sprintf("%.1f", s.WindStats.Mean),
			fmt.Sprintf("%.1f", s.WindStats.Max),
			fmt.Sprintf("%.1f", s.WindStats.Min),
			fmt.Sprintf("%.1f", s.WindStats.Std),
			fmt.Sprintf("%.1f", s.WindStats.Median))
		fmt.Println(table)
	}
}

func renderCities(ms []guajira.Municipality) {
	table := uitable.New()
	table.AddRow("MUNICIPALITY", "LAT", "LON")
	for _, m := range ms {
		table.AddRow(m.Name, fmt.Sprintf("%.4f", m.Latitude), fmt.Sprintf("%.4f", m.Longitude))
	}
	fmt.Println(table)
}
