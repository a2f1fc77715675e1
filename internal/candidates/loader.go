// internal/candidates/loader.go
package candidates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"caregiver-matching/internal/models"
)

var (
	ErrEmptyPool      = errors.New("EMPTY_POOL")
	ErrUnknownSource  = errors.New("UNKNOWN_SOURCE")
	ErrInvalidRecords = errors.New("INVALID_RECORDS")
)

// Loader reads the full candidate pool from one source.
type Loader interface {
	Source() string
	Load(ctx context.Context) ([]models.Candidate, error)
}

// FileLoader reads a normalized JSON pool file: an array of candidates.
type FileLoader struct {
	path string
}

func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

func (l *FileLoader) Source() string {
	return "file"
}

func (l *FileLoader) Load(ctx context.Context) ([]models.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read pool file: %w", err)
	}

	var raw []models.Candidate
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRecords, l.path, err)
	}
	return finish(raw)
}

// finish normalizes candidates, drops records without an id and rejects an empty pool.
func finish(raw []models.Candidate) ([]models.Candidate, error) {
	pool := make([]models.Candidate, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, c := range raw {
		c = NormalizeCandidate(c)
		if c.ID == "" || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		pool = append(pool, c)
	}
	if len(pool) == 0 {
		return nil, ErrEmptyPool
	}
	return pool, nil
}
