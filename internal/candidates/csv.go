// internal/candidates/csv.go
package candidates

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"caregiver-matching/internal/models"
)

// CSVLoader reads the operational caregiver export. Rows sharing a nurse_id are merged.
type CSVLoader struct {
	path string
}

func NewCSVLoader(path string) *CSVLoader {
	return &CSVLoader{path: path}
}

func (l *CSVLoader) Source() string {
	return "csv"
}

func (l *CSVLoader) Load(ctx context.Context) ([]models.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	records, err := ParseCSV(f)
	if err != nil {
		return nil, err
	}

	pool := make([]models.Candidate, 0, len(records))
	for _, r := range records {
		if !r.Active || !r.Approved {
			continue
		}
		pool = append(pool, Normalize(r))
	}
	return finish(pool)
}

// ParseCSV reads an export with a header row. Required column: nurse_id. Optional:
// name, mobility, municipality, treatment_type, is_active, is_approved, lat, lng,
// rating, reviews_count. Missing activity columns count as true.
func ParseCSV(r io.Reader) ([]RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyPool
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := columnIndex(header)
	if _, ok := cols["nurse_id"]; !ok {
		return nil, fmt.Errorf("%w: missing nurse_id column", ErrInvalidRecords)
	}

	var order []string
	byID := make(map[string]*RawRecord)
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidRecords, line, err)
		}

		get := func(name string) string {
			if i, ok := cols[name]; ok && i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}

		id := get("nurse_id")
		if id == "" {
			continue
		}
		rec, ok := byID[id]
		if !ok {
			rec = &RawRecord{
				ID:       id,
				Active:   parseBool(get("is_active"), true),
				Approved: parseBool(firstNonEmpty(get("is_approved[nurse_nurse]"), get("is_approved")), true),
			}
			byID[id] = rec
			order = append(order, id)
		}
		if rec.Name == "" {
			rec.Name = get("name")
		}
		rec.Mobility = appendNonEmpty(rec.Mobility, get("mobility"))
		rec.Municipalities = appendNonEmpty(rec.Municipalities, get("municipality"))
		rec.Specializations = appendNonEmpty(rec.Specializations, get("treatment_type"))

		if rec.Coordinate == nil {
			lat, latErr := strconv.ParseFloat(get("lat"), 64)
			lng, lngErr := strconv.ParseFloat(get("lng"), 64)
			if latErr == nil && lngErr == nil {
				rec.Coordinate = &models.Coordinate{Lat: lat, Lng: lng}
			}
		}
		if v, err := strconv.ParseFloat(get("rating"), 64); err == nil && rec.Rating == nil {
			rec.Rating = &v
		}
		if v, err := strconv.Atoi(get("reviews_count")); err == nil && rec.ReviewsCount == nil {
			rec.ReviewsCount = &v
		}
	}

	records := make([]RawRecord, 0, len(order))
	for _, id := range order {
		records = append(records, *byID[id])
	}
	return records, nil
}

func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		cols[h] = i
	}
	return cols
}

func parseBool(v string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "":
		return fallback
	case "true", "t", "1", "yes", "y":
		return true
	default:
		return false
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func appendNonEmpty(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
