package climate

// Request and response types mirror the Guajira climate API contract.

// BulkRequest asks the API to fetch and persist one date-bounded range
// of historical records for a set of cities (all municipalities when
// Cities is empty).
type BulkRequest struct {
	StartDate string   `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string   `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	StartHour int      `json:"start_hour" validate:"gte=0,lte=23"`
	EndHour   int      `json:"end_hour" validate:"gte=0,lte=23,gtefield=StartHour"`
	WindOnly  bool     `json:"wind_only"`
	Cities    []string `json:"cities,omitempty"`
}

// CityResult is one per-city entry of a bulk download response.
type CityResult struct {
	City    string `json:"city"`
	Rows    int    `json:"rows,omitempty"`
	File    string `json:"file,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// BulkResponse is the body of POST /download/bulk.
type BulkResponse struct {
	Result []CityResult `json:"result"`
}

// Failures returns the entries that did not succeed.
func (r BulkResponse) Failures() []CityResult {
	var out []CityResult
	for _, res := range r.Result {
		if !res.Success {
			out = append(out, res)
		}
	}
	return out
}

// TotalRows sums the rows persisted across cities.
func (r BulkResponse) TotalRows() int {
	var n int
	for _, res := range r.Result {
		n += res.Rows
	}
	return n
}

// SingleRequest asks for one city's archive download. Lat/Lon are only
// needed for cities outside the server's municipality registry.
type SingleRequest struct {
	City      string   `json:"city" validate:"required"`
	StartDate string   `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string   `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	StartHour int      `json:"start_hour" validate:"gte=0,lte=23"`
	EndHour   int      `json:"end_hour" validate:"gte=0,lte=23,gtefield=StartHour"`
	Lat       *float64 `json:"lat,omitempty"`
	Lon       *float64 `json:"lon,omitempty"`
	WindOnly  bool     `json:"wind_only"`
}

// SingleResponse is the body of POST /download/single.
type SingleResponse struct {
	Success   bool   `json:"success"`
	City      string `json:"city"`
	SavedFile string `json:"saved_file,omitempty"`
	Rows      int    `json:"rows,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Message   string `json:"message,omitempty"`
}

// UpdateRequest triggers an incremental pull up to the last closed
// hour, for one city or all of them.
type UpdateRequest struct {
	City      string `json:"city,omitempty"`
	StartHour int    `json:"start_hour" validate:"gte=0,lte=23"`
	EndHour   int    `json:"end_hour" validate:"gte=0,lte=23,gtefield=StartHour"`
	WindOnly  bool   `json:"wind_only"`
}

// PullStats summarizes a city's dataset after an incremental pull.
type PullStats struct {
	TotalRecords int        `json:"total_records"`
	DateRange    DateRange  `json:"date_range"`
	WindStats    *WindStats `json:"wind_stats,omitempty"`
}

// UpdateResult is one per-city entry of an hourly update response.
type UpdateResult struct {
	City          string     `json:"city"`
	NewRows       int        `json:"new_rows"`
	File          string     `json:"file,omitempty"`
	Stats         *PullStats `json:"stats,omitempty"`
	LastTimestamp string     `json:"last_timestamp,omitempty"`
	Success       bool       `json:"success"`
	Error         string     `json:"error,omitempty"`
}

// UpdateResponse is the body of POST /update/hourly.
type UpdateResponse struct {
	Updated []UpdateResult `json:"updated"`
}

// FilesResponse is the body of GET /files.
type FilesResponse struct {
	Files []string `json:"files"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	OK   bool   `json:"ok"`
	Time string `json:"time"`
}

// DateRange bounds a dataset, formatted "2006-01-02 15:04".
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WindStats holds wind speed aggregates in km/h.
type WindStats struct {
	Mean   float64 `json:"mean"`
	Max    float64 `json:"max"`
	Min    float64 `json:"min"`
	Std    float64 `json:"std"`
	Median float64 `json:"median"`
}

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	City      string     `json:"city"`
	Records   int        `json:"records"`
	DateRange DateRange  `json:"date_range"`
	WindStats *WindStats `json:"wind_stats,omitempty"`
}
