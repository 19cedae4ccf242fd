package climate

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/atomic"
)

// newTestAPI runs a fiber app on a loopback listener and returns its
// base URL. The app is shut down when the test finishes.
func newTestAPI(t *testing.T, register func(app *fiber.App)) string {
	t.Helper()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	register(app)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return "http://" + ln.Addr().String()
}

func testClient(baseURL string, maxRetries int) *Client {
	return New(Options{
		BaseURL:      baseURL,
		Timeout:      5 * time.Second,
		MaxRetries:   maxRetries,
		RetryInitial: time.Millisecond,
		RetryMax:     5 * time.Millisecond,
	})
}

func TestBulkDownloadWireContract(t *testing.T) {
	var (
		mu       sync.Mutex
		captured BulkRequest
		runID    string
		agent    string
	)

	baseURL := newTestAPI(t, func(app *fiber.App) {
		app.Post("/download/bulk", func(c *fiber.Ctx) error {
			mu.Lock()
			defer mu.Unlock()
			if err := c.BodyParser(&captured); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			runID = c.Get("X-Run-Id")
			agent = c.Get("User-Agent")
			return c.JSON(fiber.Map{
				"result": []fiber.Map{
					{"city": "riohacha", "rows": 1200, "file": "data/open_meteo_riohacha.csv", "success": true},
					{"city": "bogota", "success": false, "error": "municipio desconocido"},
				},
			})
		})
	})

	client := testClient(baseURL, 0)
	resp, err := client.BulkDownload(context.Background(), BulkRequest{
		StartDate: "2015-03-14",
		EndDate:   "2016-03-13",
		StartHour: 6,
		EndHour:   18,
		WindOnly:  true,
		Cities:    []string{"riohacha", "bogota"},
	})
	if err != nil {
		t.Fatalf("BulkDownload: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if captured.StartDate != "2015-03-14" || captured.EndDate != "2016-03-13" {
		t.Errorf("dates not carried: %+v", captured)
	}
	if captured.StartHour != 6 || captured.EndHour != 18 || !captured.WindOnly {
		t.Errorf("window not carried: %+v", captured)
	}
	if len(captured.Cities) != 2 {
		t.Errorf("cities not carried: %+v", captured.Cities)
	}
	if runID != client.RunID() || runID == "" {
		t.Errorf("X-Run-Id = %q, want %q", runID, client.RunID())
	}
	if agent != UserAgent {
		t.Errorf("User-Agent = %q", agent)
	}

	if len(resp.Result) != 2 {
		t.Fatalf("got %d results", len(resp.Result))
	}
	if resp.TotalRows() != 1200 {
		t.Errorf("TotalRows = %d", resp.TotalRows())
	}
	failures := resp.Failures()
	if len(failures) != 1 || failures[0].City != "bogota" {
		t.Errorf("Failures = %+v", failures)
	}
}

func TestRetriesServerErrorsThenSucceeds(t *testing.T) {
	calls := atomic.NewInt32(0)

	baseURL := newTestAPI(t, func(app *fiber.App) {
		app.Get("/health", func(c *fiber.Ctx) error {
			if calls.Inc() <= 2 {
				return fiber.NewError(fiber.StatusInternalServerError, "boom")
			}
			return c.JSON(fiber.Map{"ok": true, "time": "2024-03-14T10:00:00-05:00"})
		})
	})

	client := testClient(baseURL, 3)
	resp, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if !resp.OK {
		t.Error("expected ok response")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server hit %d times, want 3", got)
	}
}

func TestBadRequestIsNotRetried(t *testing.T) {
	calls := atomic.NewInt32(0)

	baseURL := newTestAPI(t, func(app *fiber.App) {
		app.Get("/stats", func(c *fiber.Ctx) error {
			calls.Inc()
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "No hay datos para bogota"})
		})
	})

	client := testClient(baseURL, 3)
	_, err := client.Stats(context.Background(), "bogota")
	if !errors.Is(err, errUnexpected) {
		t.Fatalf("expected errUnexpected, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server hit %d times, want 1", got)
	}
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	baseURL := newTestAPI(t, func(app *fiber.App) {
		app.Get("/files", func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusInternalServerError, "down")
		})
	})

	client := testClient(baseURL, 0)
	for i := 0; i < 6; i++ {
		if _, err := client.ListFiles(context.Background()); err == nil {
			t.Fatalf("call %d: expected error", i)
		}
	}

	_, err := client.ListFiles(context.Background())
	if !errors.Is(err, errCircuitOpen) {
		t.Fatalf("expected circuit open, got %v", err)
	}
}

func TestRequestValidation(t *testing.T) {
	calls := atomic.NewInt32(0)
	baseURL := newTestAPI(t, func(app *fiber.App) {
		app.Post("/download/bulk", func(c *fiber.Ctx) error {
			calls.Inc()
			return c.JSON(fiber.Map{"result": []fiber.Map{}})
		})
	})

	client := testClient(baseURL, 0)

	_, err := client.BulkDownload(context.Background(), BulkRequest{StartHour: 25, EndHour: 26})
	if err == nil {
		t.Fatal("expected validation error for out-of-range hours")
	}
	_, err = client.BulkDownload(context.Background(), BulkRequest{StartHour: 18, EndHour: 6})
	if err == nil {
		t.Fatal("expected validation error for inverted hours")
	}
	_, err = client.BulkDownload(context.Background(), BulkRequest{StartDate: "14-03-2015", StartHour: 6, EndHour: 18})
	if err == nil {
		t.Fatal("expected validation error for malformed date")
	}
	if got := calls.Load(); got != 0 {
		t.Errorf("server hit %d times, want 0", got)
	}
}

func TestStatsParsesWindStats(t *testing.T) {
	baseURL := newTestAPI(t, func(app *fiber.App) {
		app.Get("/stats", func(c *fiber.Ctx) error {
			if c.Query("city") != "maicao" {
				return fiber.NewError(fiber.StatusBadRequest, "wrong city")
			}
			return c.JSON(fiber.Map{
				"city":    "maicao",
				"records": 54021,
				"date_range": fiber.Map{
					"start": "2014-03-14 06:00",
					"end":   "2024-03-13 18:00",
				},
				"wind_stats": fiber.Map{
					"mean": 18.4, "max": 42.7, "min": 0.0, "std": 6.1, "median": 17.9,
				},
			})
		})
	})

	client := testClient(baseURL, 0)
	resp, err := client.Stats(context.Background(), "maicao")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if resp.Records != 54021 || resp.City != "maicao" {
		t.Errorf("unexpected stats: %+v", resp)
	}
	if resp.WindStats == nil || resp.WindStats.Mean != 18.4 {
		t.Errorf("wind stats not parsed: %+v", resp.WindStats)
	}
	if resp.DateRange.Start != "2014-03-14 06:00" {
		t.Errorf("date range not parsed: %+v", resp.DateRange)
	}
}

func TestListFiles(t *testing.T) {
	baseURL := newTestAPI(t, func(app *fiber.App) {
		app.Get("/files", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"files": []string{
				"data/open_meteo_maicao.csv",
				"data/open_meteo_riohacha.csv",
			}})
		})
	})

	client := testClient(baseURL, 0)
	resp, err := client.ListFiles(context.Background())
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(resp.Files) != 2 {
		t.Errorf("got %d files", len(resp.Files))
	}
}
