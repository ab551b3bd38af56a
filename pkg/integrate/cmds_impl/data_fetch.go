package impl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"climate-analyzer/pkg/client"
	"climate-analyzer/pkg/dataset"
	"climate-analyzer/pkg/lock"
	"climate-analyzer/pkg/logger"
	"climate-analyzer/pkg/timerange"
)

const fetchLockFile = ".fetch.lock"

// DailyFetcher is the part of *client.Client the fetch pipeline needs.
type DailyFetcher interface {
	FetchDaily(ctx context.Context, city client.City, start, end time.Time) (*client.FetchResult, error)
}

type FetchSummary struct {
	Saved   []string
	Skipped []string
	Failed  map[string]error
	Network int
}

// DataFetch downloads, cleans and stores every requested city. Cities whose
// stored data already covers the range are skipped unless Refresh is set.
// Between two cities that hit the network it waits Delay, never after the
// last one.
func DataFetch(ctx context.Context, params FetchParams, fetcher DailyFetcher) (*FetchSummary, error) {
	all, err := client.LoadCities(params.CitiesFile)
	if err != nil {
		return nil, err
	}
	cities, err := client.SelectCities(all, params.Cities)
	if err != nil {
		return nil, err
	}
	if params.End.Before(params.Start) {
		return nil, fmt.Errorf("end date %s is before start date %s",
			params.End.Format(client.DateLayout), params.Start.Format(client.DateLayout))
	}

	if err := os.MkdirAll(params.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	fl, err := lock.TryLock(filepath.Join(params.DataDir, fetchLockFile), "data.fetch")
	if err != nil {
		return nil, fmt.Errorf("another fetch is running on %s: %w", params.DataDir, err)
	}
	defer fl.Unlock()

	if cleaned, err := lock.CleanupTempFiles(params.DataDir, params.CacheDir); err != nil {
		logger.Warnf("failed to cleanup temp files: %v", err)
	} else if cleaned > 0 {
		logger.Infof("cleaned %d temp files", cleaned)
	}

	store := dataset.NewStore(params.DataDir)
	coverage := timerange.NewManager(params.CacheDir)

	prog := &progress{total: len(cities)}
	logger.SetProgressProvider(prog)
	defer logger.SetProgressProvider(nil)

	summary := &FetchSummary{Failed: make(map[string]error)}
	for i, city := range cities {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		logger.Infof("fetching %s (%d/%d)", city.Name, i+1, len(cities))
		network, err := fetchCity(ctx, city, params, fetcher, store, coverage)
		prog.done.Add(1)
		switch {
		case err != nil:
			logger.Errorf("%s: %v", city.Name, err)
			summary.Failed[city.Name] = err
		case network < 0:
			summary.Skipped = append(summary.Skipped, city.Name)
		default:
			summary.Saved = append(summary.Saved, city.Name)
			summary.Network += network
		}

		if network > 0 && i < len(cities)-1 && params.Delay > 0 {
			logger.Infof("waiting %s before next request (API rate limit)", params.Delay)
			if err := sleepCtx(ctx, params.Delay); err != nil {
				return summary, err
			}
		}
	}

	if len(summary.Failed) > 0 {
		names := make([]string, 0, len(summary.Failed))
		for _, c := range cities {
			if _, ok := summary.Failed[c.Name]; ok {
				names = append(names, c.Name)
			}
		}
		return summary, fmt.Errorf("failed to fetch %d of %d cities: %s",
			len(names), len(cities), strings.Join(names, ", "))
	}
	return summary, nil
}

// fetchCity returns the number of network requests made, or -1 when the
// stored data already covered the range.
func fetchCity(ctx context.Context, city client.City, params FetchParams, fetcher DailyFetcher,
	store *dataset.Store, coverage *timerange.Manager) (int, error) {

	stem := client.FileStem(city.Name)
	if params.Refresh || !store.Exists(city.Name) {
		if err := coverage.Reset(stem); err != nil {
			return 0, err
		}
	}

	missing := coverage.Missing(stem, params.Start, params.End)
	if len(missing) == 0 {
		logger.Infof("%s: stored data already covers %s ~ %s", city.Name,
			params.Start.Format(client.DateLayout), params.End.Format(client.DateLayout))
		return -1, nil
	}

	var fresh []dataset.DailyRecord
	network := 0
	for _, r := range missing {
		first, last := r.Dates()
		res, err := fetcher.FetchDaily(ctx, city, first, last)
		if err != nil {
			return network, err
		}
		if !res.Cached {
			network++
		}
		fresh = append(fresh, dataset.FromPoints(res.Points)...)
	}

	var existing []dataset.DailyRecord
	if !params.Refresh {
		records, err := store.Load(city.Name)
		if err != nil && !errors.Is(err, dataset.ErrCityNotFound) && !errors.Is(err, dataset.ErrEmptyData) {
			return network, err
		}
		existing = records
	}

	records := dataset.Normalize(dataset.Clean(dataset.Merge(existing, fresh)))
	if len(records) == 0 {
		return network, fmt.Errorf("no data returned for %s", city.Name)
	}
	if err := store.Save(city.Name, records); err != nil {
		return network, err
	}

	for _, r := range missing {
		first, last := r.Dates()
		if err := coverage.Add(stem, first, last); err != nil {
			logger.Warnf("%s: failed to record coverage: %v", city.Name, err)
		}
	}
	logger.Infof("saved %d days for %s to %s", len(records), city.Name, store.Path(city.Name))
	return network, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
