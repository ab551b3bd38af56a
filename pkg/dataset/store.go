package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"climate-analyzer/pkg/client"
)

var (
	ErrCityNotFound = errors.New("no data file for city")
	ErrEmptyData    = errors.New("data file is empty")
)

var csvHeader = []string{"date", "precipitation_sum", "precipitation_normalized"}

// dateLayouts lists what Load accepts in the date column. Files written by
// older tooling carry a full UTC timestamp.
var dateLayouts = []string{
	client.DateLayout,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Store keeps one "<city>_daily.csv" file per city in a directory.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) Path(city string) string {
	return filepath.Join(s.dir, client.FileName(city))
}

// Save writes records atomically through a ".tmp" sibling.
func (s *Store) Save(city string, records []DailyRecord) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}

	path := s.Path(city)
	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(file)
	if err := writeRecords(writer, records); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

func writeRecords(writer *csv.Writer, records []DailyRecord) error {
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Date.Format(client.DateLayout),
			strconv.FormatFloat(r.Precipitation, 'f', -1, 64),
			strconv.FormatFloat(r.Normalized, 'f', -1, 64),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func (s *Store) Exists(city string) bool {
	info, err := os.Stat(s.Path(city))
	return err == nil && !info.IsDir()
}

func (s *Store) Load(city string) ([]DailyRecord, error) {
	file, err := os.Open(s.Path(city))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrCityNotFound, city)
		}
		return nil, err
	}
	defer func() { _ = file.Close() }()

	records, err := readRecords(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path(city), err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyData, city)
	}
	return records, nil
}

func readRecords(r io.Reader) ([]DailyRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	dateCol, valueCol, normCol := -1, -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "date":
			dateCol = i
		case "precipitation_sum":
			valueCol = i
		case "precipitation_normalized":
			normCol = i
		}
	}
	if dateCol < 0 || valueCol < 0 {
		return nil, fmt.Errorf("missing date or precipitation_sum column in header %v", header)
	}

	var records []DailyRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) <= dateCol || len(row) <= valueCol {
			return nil, fmt.Errorf("line %d: too few columns", line)
		}

		date, err := parseDate(row[dateCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		value, err := parseValue(row[valueCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rec := DailyRecord{Date: date, Precipitation: value}
		if normCol >= 0 && normCol < len(row) {
			if nv, err := parseValue(row[normCol]); err == nil {
				rec.Normalized = nv
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// parseValue reads an empty cell as NaN.
func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// List maps display names to data files present in the directory.
func (s *Store) List() (map[string]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}

	files := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), client.DailyFileSuffix) {
			continue
		}
		files[client.DisplayName(e.Name())] = filepath.Join(s.dir, e.Name())
	}
	return files, nil
}

func (s *Store) Cities() ([]string, error) {
	files, err := s.List()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// LoadAll loads the named cities, or every stored city when names is empty.
func (s *Store) LoadAll(names []string) (map[string][]DailyRecord, error) {
	if len(names) == 0 {
		var err error
		names, err = s.Cities()
		if err != nil {
			return nil, err
		}
	}
	data := make(map[string][]DailyRecord, len(names))
	for _, name := range names {
		records, err := s.Load(name)
		if err != nil {
			return nil, err
		}
		data[client.DisplayName(client.FileStem(name))] = records
	}
	return data, nil
}
