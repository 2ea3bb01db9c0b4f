package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const fredBaseURL = "https://api.stlouisfed.org/fred"

var ErrMissingAPIKey = errors.New("fred api key is not configured")

// StatusError is a non-200 answer from an upstream API.
type StatusError struct {
	Service string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error %d: %s", e.Service, e.Code, e.Body)
}

type FREDObservation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

type FREDReleaseDate struct {
	ReleaseID int    `json:"release_id"`
	Date      string `json:"date"`
}

type SeriesQuery struct {
	SeriesID  string
	Start     time.Time
	End       time.Time
	Limit     int
	SortOrder string
}

type FREDProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	tracer  trace.Tracer
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewFREDProvider allows two requests per second, below the documented
// limit of 120 per minute.
func NewFREDProvider(tracer trace.Tracer, apiKey string) *FREDProvider {
	settings := gobreaker.Settings{
		Name:    "fred",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.Code < 500 && se.Code != http.StatusTooManyRequests
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
	return &FREDProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: fredBaseURL,
		apiKey:  strings.TrimSpace(apiKey),
		tracer:  tracer,
		limiter: rate.NewLimiter(rate.Limit(2), 2),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (p *FREDProvider) HasAPIKey() bool {
	return p.apiKey != ""
}

// FetchSeriesObservations returns the raw observations of a series. Values
// are kept as strings; FRED uses "." for a missing value.
func (p *FREDProvider) FetchSeriesObservations(ctx context.Context, q SeriesQuery) ([]FREDObservation, error) {
	ctx, span := p.tracer.Start(ctx, "fred.fetch-series-observations")
	defer span.End()
	span.SetAttributes(attribute.String("series_id", q.SeriesID))

	params := url.Values{}
	params.Set("series_id", q.SeriesID)
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
	params.Set("sort_order", q.SortOrder)
	if q.Limit <= 0 {
		q.Limit = 500
	}
	params.Set("limit", strconv.Itoa(q.Limit))
	if !q.Start.IsZero() {
		params.Set("observation_start", q.Start.Format(time.DateOnly))
	}
	if !q.End.IsZero() {
		params.Set("observation_end", q.End.Format(time.DateOnly))
	}

	var payload struct {
		Observations []FREDObservation `json:"observations"`
	}
	if err := p.get(ctx, "series/observations", params, &payload); err != nil {
		return nil, fmt.Errorf("fetch series %s: %w", q.SeriesID, err)
	}
	return payload.Observations, nil
}

func (p *FREDProvider) FetchReleaseDates(ctx context.Context, releaseID, limit int) ([]FREDReleaseDate, error) {
	ctx, span := p.tracer.Start(ctx, "fred.fetch-release-dates")
	defer span.End()
	span.SetAttributes(attribute.Int("release_id", releaseID))

	if limit <= 0 {
		limit = 30
	}
	params := url.Values{}
	params.Set("release_id", strconv.Itoa(releaseID))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("sort_order", "desc")

	var payload struct {
		ReleaseDates []FREDReleaseDate `json:"release_dates"`
	}
	if err := p.get(ctx, "release/dates", params, &payload); err != nil {
		return nil, fmt.Errorf("fetch release dates %d: %w", releaseID, err)
	}
	return payload.ReleaseDates, nil
}

func (p *FREDProvider) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if p.apiKey == "" {
		return ErrMissingAPIKey
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	params.Set("api_key", p.apiKey)
	params.Set("file_type", "json")
	reqURL := strings.TrimRight(p.baseURL, "/") + "/" + endpoint + "?" + params.Encode()

	_, err := p.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := p.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, &StatusError{Service: "fred", Code: resp.StatusCode, Body: string(body)}
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decode fred response: %w", err)
		}
		return nil, nil
	})
	return err
}
