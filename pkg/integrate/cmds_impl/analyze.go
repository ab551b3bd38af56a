package impl

import (
	"fmt"
	"sort"

	"climate-analyzer/pkg/anomaly"
	"climate-analyzer/pkg/client"
	"climate-analyzer/pkg/cluster"
	"climate-analyzer/pkg/dataset"
	"climate-analyzer/pkg/forecast"
	"climate-analyzer/pkg/logger"
	"climate-analyzer/pkg/report"
)

type AnomalyResult struct {
	City   string
	Days   int
	Rows   []report.AnomalyRow
	Events []anomaly.Event
	Path   string
}

// Anomaly runs the trailing-window detector over each city's daily totals
// and writes one result file per city. Flagged days at most eventGap days
// apart are reported as one event.
func Anomaly(dataDir string, cities []string, cfg anomaly.Config, eventGap int, out OutputParams) ([]AnomalyResult, error) {
	detector, err := anomaly.NewDetector(cfg)
	if err != nil {
		return nil, err
	}
	data, err := loadCities(dataDir, cities)
	if err != nil {
		return nil, err
	}

	writer := report.NewWriter(out.Dir, out.JSON)
	var results []AnomalyResult
	for _, name := range sortedKeys(data) {
		records := data[name]
		values := dataset.Values(records)
		mask := detector.Detect(values)
		scores := detector.Scores(values)

		res := AnomalyResult{
			City:   name,
			Days:   len(records),
			Events: anomaly.MergeEvents(mask, scores, eventGap, cfg.Threshold),
		}
		for _, i := range anomaly.Indices(mask) {
			res.Rows = append(res.Rows, report.AnomalyRow{
				City:          name,
				Date:          records[i].Date,
				Precipitation: values[i],
				ZScore:        scores[i],
			})
		}
		path, err := writer.WriteAnomalies(name, res.Rows)
		if err != nil {
			return nil, err
		}
		res.Path = path

		counts := anomaly.CountBySeverity(res.Events)
		fmt.Printf("  %-16s %5d anomalies in %d days, %d events (critical %d, high %d) -> %s\n",
			name, len(res.Rows), res.Days, len(res.Events),
			counts[anomaly.SeverityCritical], counts[anomaly.SeverityHigh], path)
		for _, e := range res.Events {
			if e.Severity != anomaly.SeverityCritical {
				continue
			}
			logger.Infof("%s: %s ~ %s peak %.2f in on %s (z=%.1f)", name,
				records[e.Start].Date.Format(client.DateLayout),
				records[e.End].Date.Format(client.DateLayout),
				values[e.Peak], records[e.Peak].Date.Format(client.DateLayout), e.MaxScore)
		}
		if len(records) <= cfg.WindowSize {
			logger.Warnf("%s: %d days is not more than the window size %d, nothing can be flagged",
				name, len(records), cfg.WindowSize)
		}
		results = append(results, res)
	}
	return results, nil
}

// Cluster groups cities by their yearly mean precipitation.
func Cluster(dataDir string, cities []string, params ClusterParams, out OutputParams) (*cluster.Result, string, error) {
	if params.K < 1 {
		return nil, "", cluster.ErrInvalidK
	}
	data, err := loadCities(dataDir, cities)
	if err != nil {
		return nil, "", err
	}
	if params.K > len(data) {
		return nil, "", fmt.Errorf("%w: k=%d, cities=%d", cluster.ErrTooManyClusters, params.K, len(data))
	}

	m, err := cluster.YearlyAverages(data, params.FromYear, params.ToYear)
	if err != nil {
		return nil, "", err
	}
	res, err := cluster.Run(m, params.K, cluster.DefaultSeed)
	if err != nil {
		return nil, "", err
	}

	path, err := report.NewWriter(out.Dir, out.JSON).WriteClusters(res, m)
	if err != nil {
		return nil, "", err
	}

	fmt.Printf("  %d cities, years %d-%d, k=%d, inertia %.6f\n",
		len(res.Cities), res.Years[0], res.Years[len(res.Years)-1], params.K, res.Inertia)
	groups := res.Assignments()
	for label := 0; label < params.K; label++ {
		fmt.Printf("  cluster %d: %v\n", label, groups[label])
	}
	fmt.Printf("  saved to %s\n", path)
	return res, path, nil
}

func Forecast(dataDir string, cities []string, cfg forecast.Config, out OutputParams) ([]forecast.CityForecast, string, error) {
	f, err := forecast.NewForecaster(cfg)
	if err != nil {
		return nil, "", err
	}
	data, err := loadCities(dataDir, cities)
	if err != nil {
		return nil, "", err
	}

	series := make(map[string]forecast.Series, len(data))
	for name, records := range data {
		series[name] = forecast.Series{Dates: dataset.Dates(records), Values: dataset.Values(records)}
	}
	results, err := f.ForecastAll(series)
	if err != nil {
		return nil, "", err
	}

	path, err := report.NewWriter(out.Dir, out.JSON).WriteForecast(results)
	if err != nil {
		return nil, "", err
	}

	for _, r := range results {
		counts := make(map[string]int)
		var total float64
		for _, p := range r.Points {
			counts[p.Category]++
			total += p.Value
		}
		fmt.Printf("  %-16s %s ~ %s  total %.2f in, %d wet days\n",
			r.City,
			r.Points[0].Date.Format(client.DateLayout),
			r.Points[len(r.Points)-1].Date.Format(client.DateLayout),
			total, len(r.Points)-counts[forecast.CategoryNone])
	}
	fmt.Printf("  saved to %s\n", path)
	return results, path, nil
}

func loadCities(dataDir string, cities []string) (map[string][]dataset.DailyRecord, error) {
	data, err := dataset.NewStore(dataDir).LoadAll(cities)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no city datasets found in %s", cluster.ErrNoCities, dataDir)
	}
	return data, nil
}

func sortedKeys(data map[string][]dataset.DailyRecord) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
