package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"unit-watcher/internal/config"
	"unit-watcher/internal/ratelimit"
)

// UnitPayload is one unit as returned by the marketplace listings API.
type UnitPayload struct {
	UnitID             int64    `json:"unit_id"`
	PropertyID         int64    `json:"property_id"`
	PropertyNameEN     string   `json:"property_name_en"`
	PropertyNameJA     string   `json:"property_name_ja"`
	UnitNumber         string   `json:"unit_number"`
	Layout             string   `json:"layout"`
	SizeSquareMeters   *float64 `json:"size_square_meters"`
	CityEN             string   `json:"city_en"`
	CityJA             string   `json:"city_ja"`
	Coordinates        string   `json:"coordinates"`
	ListPrice          *int     `json:"list_price"`
	EarliestMoveInDate string   `json:"earliest_move_in_date"`
	TotalReviews       *int     `json:"total_reviews"`
	OverallScore       *float64 `json:"overall_score"`
}

type listingsResponse struct {
	Items []UnitPayload `json:"items"`
}

// Fetcher retrieves marketplace listings page by page for one date range.
type Fetcher struct {
	client  *http.Client
	cfg     config.FetcherConfig
	limiter *ratelimit.RateLimiter
	breaker *CircuitBreaker
}

// NewFetcher creates a fetcher with the given configuration
func NewFetcher(cfg config.FetcherConfig, limiter *ratelimit.RateLimiter) *Fetcher {
	return &Fetcher{
		client:  &http.Client{Timeout: cfg.GetTimeout()},
		cfg:     cfg,
		limiter: limiter,
		breaker: NewCircuitBreaker(3, 30*time.Minute),
	}
}

// FetchAll retrieves every unit matching the configured filters for the
// given date range, walking pages until a short page or the page cap.
// The size filter is re-applied locally as a safety net; duplicates
// across pages collapse by unit ID.
func (f *Fetcher) FetchAll(ctx context.Context, checkIn, checkOut time.Time) ([]UnitPayload, error) {
	seen := make(map[int64]UnitPayload)
	offset := 0

	for page := 1; page <= f.cfg.MaxPages; page++ {
		if !f.breaker.CanProceed() {
			return nil, fmt.Errorf("fetch aborted: circuit breaker open after repeated failures")
		}
		if err := f.waitForSlot(ctx); err != nil {
			return nil, err
		}

		items, err := f.fetchPage(ctx, checkIn, checkOut, offset)
		if err != nil {
			return nil, err
		}

		log.Printf("[Fetcher] page %d: %d items (offset %d)", page, len(items), offset)

		if len(items) == 0 {
			break
		}

		for _, item := range items {
			if !f.sizeAllowed(item.SizeSquareMeters) {
				continue
			}
			seen[item.UnitID] = item
		}

		if len(items) < f.cfg.PageLimit {
			break
		}

		offset += f.cfg.PageLimit
		if err := f.politeSleep(ctx); err != nil {
			return nil, err
		}
	}

	out := make([]UnitPayload, 0, len(seen))
	for _, item := range seen {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnitID < out[j].UnitID })
	return out, nil
}

func (f *Fetcher) fetchPage(ctx context.Context, checkIn, checkOut time.Time, offset int) ([]UnitPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.BaseURL, nil)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("layouts", strings.Join(f.cfg.Layouts, ","))
	params.Set("check_in", checkIn.Format("2006-01-02"))
	params.Set("check_out", checkOut.Format("2006-01-02"))
	params.Set("min_price", strconv.Itoa(f.cfg.MinPriceJPY))
	params.Set("max_price", strconv.Itoa(f.cfg.MaxPriceJPY))
	params.Set("gcc_id", strconv.Itoa(f.cfg.GccID))
	params.Set("limit", strconv.Itoa(f.cfg.PageLimit))
	params.Set("offset", strconv.Itoa(offset))
	req.URL.RawQuery = params.Encode()

	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := f.client.Do(req)
	if err != nil {
		f.breaker.RecordFailure(0)
		return nil, fmt.Errorf("failed to fetch listings page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden {
			f.breaker.RecordFailure(resp.StatusCode)
		}
		return nil, fmt.Errorf("listings API returned status %d", resp.StatusCode)
	}

	var payload listingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode listings page: %w", err)
	}

	f.breaker.RecordSuccess()
	return payload.Items, nil
}

func (f *Fetcher) sizeAllowed(size *float64) bool {
	if size == nil {
		return f.cfg.MinSizeSqm == nil && f.cfg.MaxSizeSqm == nil
	}
	if f.cfg.MinSizeSqm != nil && *size < *f.cfg.MinSizeSqm {
		return false
	}
	if f.cfg.MaxSizeSqm != nil && *size > *f.cfg.MaxSizeSqm {
		return false
	}
	return true
}

// waitForSlot blocks until the rate limiter admits another request.
func (f *Fetcher) waitForSlot(ctx context.Context) error {
	for {
		if f.limiter == nil || f.limiter.AllowRequest() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

// politeSleep waits a randomized delay between pages.
func (f *Fetcher) politeSleep(ctx context.Context) error {
	min, max := f.cfg.GetMinDelay(), f.cfg.GetMaxDelay()
	if max <= 0 {
		return nil
	}
	delay := min
	if max > min {
		delay = min + time.Duration(rand.Int63n(int64(max-min)))
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}
