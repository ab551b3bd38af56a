package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"climate-analyzer/pkg/client"
	"climate-analyzer/pkg/cluster"
	"climate-analyzer/pkg/forecast"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

type AnomalyRow struct {
	City          string    `json:"city"`
	Date          time.Time `json:"date"`
	Precipitation float64   `json:"precipitation_sum"`
	ZScore        float64   `json:"z_score"`
}

type ClusterRow struct {
	City    string    `json:"city"`
	Cluster int       `json:"cluster"`
	Yearly  []float64 `json:"yearly_means"`
}

// Writer stores result tables under one output directory. Files are written
// to a .tmp sibling first and renamed into place.
type Writer struct {
	dir    string
	format Format
	mu     sync.Mutex
}

func NewWriter(dir string, asJSON bool) *Writer {
	format := FormatCSV
	if asJSON {
		format = FormatJSON
	}
	return &Writer{dir: dir, format: format}
}

func (w *Writer) Dir() string {
	return w.dir
}

func (w *Writer) Format() Format {
	return w.format
}

func (w *Writer) WriteAnomalies(city string, rows []AnomalyRow) (string, error) {
	header := []string{"city", "date", "precipitation_sum", "z_score"}
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = []string{r.City, r.Date.Format(client.DateLayout), formatFloat(r.Precipitation), formatFloat(r.ZScore)}
	}
	return w.writeTable(client.FileStem(city)+"_anomalies", header, records, rows)
}

func (w *Writer) WriteForecast(results []forecast.CityForecast) (string, error) {
	header := []string{"city", "date", "predicted_precipitation_sum", "category"}
	var records [][]string
	for _, r := range results {
		for _, p := range r.Points {
			records = append(records, []string{r.City, p.Date.Format(client.DateLayout), formatFloat(p.Value), p.Category})
		}
	}
	return w.writeTable("forecast", header, records, results)
}

func (w *Writer) WriteClusters(res *cluster.Result, m *cluster.Matrix) (string, error) {
	header := []string{"city", "cluster"}
	for _, y := range res.Years {
		header = append(header, strconv.Itoa(y))
	}

	rows := ClusterRows(res, m)
	records := make([][]string, len(rows))
	for i, r := range rows {
		record := []string{r.City, strconv.Itoa(r.Cluster)}
		for j := range res.Years {
			v := ""
			if j < len(r.Yearly) {
				v = formatFloat(r.Yearly[j])
			}
			record = append(record, v)
		}
		records[i] = record
	}
	return w.writeTable("clusters", header, records, rows)
}

// ClusterRows pairs each city with its label and, when m is given, its
// feature vector.
func ClusterRows(res *cluster.Result, m *cluster.Matrix) []ClusterRow {
	vectors := make(map[string][]float64)
	if m != nil {
		for i, city := range m.Cities {
			vectors[city] = m.Values[i]
		}
	}
	rows := make([]ClusterRow, len(res.Cities))
	for i, city := range res.Cities {
		rows[i] = ClusterRow{City: city, Cluster: res.Labels[i], Yearly: vectors[city]}
	}
	return rows
}

func (w *Writer) writeTable(name string, header []string, records [][]string, v any) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(w.dir, name+"."+string(w.format))
	tmpPath := path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return "", err
	}

	if w.format == FormatJSON {
		enc := json.NewEncoder(file)
		enc.SetIndent("", "  ")
		err = enc.Encode(v)
	} else {
		writer := csv.NewWriter(file)
		if err = writer.Write(header); err == nil {
			err = writer.WriteAll(records)
		}
	}
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}
	return path, nil
}

func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
