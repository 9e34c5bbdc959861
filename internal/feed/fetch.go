// Package feed retrieves the per-series calendar feeds and extracts session
// entries from them.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	applog "gridclock/internal/log"
	"gridclock/internal/model"
)

// Source is one series feed to retrieve.
type Source struct {
	Series model.Series
	URL    string
}

// FetchResult contains the outcome of fetching a single feed.
type FetchResult struct {
	Source Source
	Body   []byte
}

// Fetcher retrieves calendar feeds over HTTP. Feeds are always fetched
// fresh; there is deliberately no response cache.
type Fetcher struct {
	client *http.Client
	log    zerolog.Logger
}

// NewFetcher creates a Fetcher with a bounded request timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: applog.WithComponent("feed"),
	}
}

// FetchAll retrieves all given sources concurrently. A failing source does
// not affect the others; its failure is reported as a model.FeedError. The
// results slice only contains sources that produced a body.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) ([]FetchResult, []model.FeedError) {
	if len(sources) == 0 {
		return nil, nil
	}

	results := make([]*FetchResult, len(sources))
	failures := make([]*model.FeedError, len(sources))

	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			res, err := f.FetchOne(ctx, src)
			if err != nil {
				f.log.Error().Err(err).
					Str("series", string(src.Series)).
					Str("url", redactURL(src.URL)).
					Msg("feed fetch failed")
				failures[i] = &model.FeedError{
					Series:  src.Series,
					Stage:   "fetch",
					Message: err.Error(),
				}
				return nil
			}
			results[i] = &res
			return nil
		})
	}
	_ = g.Wait()

	out := make([]FetchResult, 0, len(sources))
	var errs []model.FeedError
	for i := range sources {
		if results[i] != nil {
			out = append(out, *results[i])
		}
		if failures[i] != nil {
			errs = append(errs, *failures[i])
		}
	}
	return out, errs
}

// FetchOne retrieves a single feed. Any non-200 status is a failure.
func (f *Fetcher) FetchOne(ctx context.Context, src Source) (FetchResult, error) {
	if src.URL == "" {
		return FetchResult{}, errors.New("source URL is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return FetchResult{}, err
	}
	req.Header.Set("Cache-Control", "no-cache")

	f.log.Debug().
		Str("series", string(src.Series)).
		Str("url", redactURL(src.URL)).
		Msg("feed fetch start")

	resp, err := f.client.Do(req)
	if err != nil {
		return FetchResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return FetchResult{}, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return FetchResult{}, err
	}

	f.log.Info().
		Str("series", string(src.Series)).
		Str("url", redactURL(src.URL)).
		Int("bytes", len(body)).
		Msg("feed fetch success")

	return FetchResult{Source: src, Body: body}, nil
}

// redactURL hides the path and query of a feed URL for logging. Subscription
// feeds routinely carry access tokens in the path.
func redactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	i := -1
	for idx := 0; idx+2 < len(u); idx++ {
		if u[idx:idx+3] == "://" {
			i = idx + 3
			break
		}
	}
	if i == -1 {
		return "feed://...(redacted)"
	}

	j := i
	for j < len(u) && u[j] != '/' {
		j++
	}
	return u[:j] + redactedSuffix
}
