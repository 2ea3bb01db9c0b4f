package provider

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestFRED(t *testing.T, fn roundTripFunc) *FREDProvider {
	t.Helper()
	p := NewFREDProvider(trace.NewNoopTracerProvider().Tracer("test"), "secret")
	p.baseURL = "http://example/fred"
	p.client = &http.Client{Transport: fn}
	p.limiter = rate.NewLimiter(rate.Inf, 1)
	return p
}

func jsonResponse(code int, body string) *http.Response {
	return &http.Response{
		StatusCode: code,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Header:     make(http.Header),
	}
}

func TestFREDFetchSeriesObservations(t *testing.T) {
	p := newTestFRED(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/fred/series/observations" {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		q := req.URL.Query()
		if q.Get("series_id") != "UNRATE" || q.Get("api_key") != "secret" || q.Get("file_type") != "json" {
			t.Fatalf("unexpected query: %s", req.URL.RawQuery)
		}
		if q.Get("sort_order") != "asc" || q.Get("limit") != "100" {
			t.Fatalf("unexpected paging: %s", req.URL.RawQuery)
		}
		if q.Get("observation_start") != "2022-06-03" || q.Get("observation_end") != "2024-06-03" {
			t.Fatalf("unexpected window: %s", req.URL.RawQuery)
		}
		return jsonResponse(http.StatusOK, `{"observations":[{"date":"2024-05-01","value":"3.9"},{"date":"2024-06-01","value":"."}]}`), nil
	})

	obs, err := p.FetchSeriesObservations(context.Background(), SeriesQuery{
		SeriesID:  "UNRATE",
		Start:     time.Date(2022, 6, 3, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Limit:     100,
		SortOrder: "asc",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(obs) != 2 || obs[0].Value != "3.9" || obs[1].Value != "." {
		t.Fatalf("unexpected observations: %+v", obs)
	}
}

func TestFREDFetchReleaseDates(t *testing.T) {
	p := newTestFRED(t, func(req *http.Request) (*http.Response, error) {
		if !strings.HasSuffix(req.URL.Path, "/release/dates") || req.URL.Query().Get("release_id") != "50" {
			t.Fatalf("unexpected request: %s", req.URL.String())
		}
		return jsonResponse(http.StatusOK, `{"release_dates":[{"release_id":50,"date":"2024-06-07"}]}`), nil
	})

	dates, err := p.FetchReleaseDates(context.Background(), 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dates) != 1 || dates[0].Date != "2024-06-07" {
		t.Fatalf("unexpected release dates: %+v", dates)
	}
}

func TestFREDRequiresAPIKey(t *testing.T) {
	p := newTestFRED(t, func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	p.apiKey = ""

	_, err := p.FetchSeriesObservations(context.Background(), SeriesQuery{SeriesID: "UNRATE"})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestFREDStatusError(t *testing.T) {
	p := newTestFRED(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadRequest, `{"error_message":"Bad Request. The series does not exist."}`), nil
	})

	_, err := p.FetchSeriesObservations(context.Background(), SeriesQuery{SeriesID: "NOPE"})
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadRequest {
		t.Fatalf("expected status error, got %v", err)
	}
	if p.breaker.State() != gobreaker.StateClosed {
		t.Fatalf("client errors should not trip the breaker")
	}
}

func TestFREDBreakerOpensOnServerErrors(t *testing.T) {
	calls := 0
	p := newTestFRED(t, func(req *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusBadGateway, "upstream"), nil
	})

	for i := 0; i < 5; i++ {
		if _, err := p.FetchSeriesObservations(context.Background(), SeriesQuery{SeriesID: "UNRATE"}); err == nil {
			t.Fatal("expected error")
		}
	}
	_, err := p.FetchSeriesObservations(context.Background(), SeriesQuery{SeriesID: "UNRATE"})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open breaker, got %v", err)
	}
	if calls != 5 {
		t.Fatalf("expected 5 upstream calls, got %d", calls)
	}
}
