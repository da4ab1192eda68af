// Package occupancy loads observed vehicle occupancy levels, the side-car
// data the solver's Loads comparator folds into a journey's Pareto vector.
package occupancy

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Level buckets an observed occupancy reading into the 3-value histogram the
// solver's Loads comparator accumulates over a journey's legs.
type Level int

const (
	Low Level = iota
	Medium
	High
)

// String renders a Level the way it appears in the occupancy table.
func (l Level) String() string {
	switch l {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return "unknown"
	}
}

// ParseLevel parses the occupancy table's stored level strings.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "low":
		return Low, nil
	case "medium":
		return Medium, nil
	case "high":
		return High, nil
	default:
		return 0, fmt.Errorf("occupancy: %q is not a recognized occupancy level", s)
	}
}

// reading is one row of the occupancy table: an observed level for a single
// stop-time position of a vehicle journey on a given service date.
type reading struct {
	VehicleJourneyId string    `db:"vehicle_journey_id"`
	Date             time.Time `db:"date"`
	StopSequence     int       `db:"stop_sequence"`
	Level            string    `db:"level"`
}

// Key identifies one occupancy reading: a vehicle journey, the service date
// it ran on, and the stop-time position along its course.
type Key struct {
	VehicleJourneyId string
	Date             time.Time
	StopSequence     int
}

// Store is an in-memory snapshot of occupancy readings for a dataset,
// queried once per reload and held immutably thereafter, mirroring the
// ml_model snapshot-loading pattern this package is adapted from.
type Store struct {
	byKey map[Key]Level
}

// Load retrieves every occupancy reading recorded for dataSetId.
func Load(ctx context.Context, db *sqlx.DB, dataSetId int64) (*Store, error) {
	var rows []reading
	query := db.Rebind("select vehicle_journey_id, date, stop_sequence, level " +
		"from occupancy where data_set_id = ?")
	if err := db.SelectContext(ctx, &rows, query, dataSetId); err != nil {
		return nil, fmt.Errorf("occupancy: loading readings: %w", err)
	}

	byKey := make(map[Key]Level, len(rows))
	for _, row := range rows {
		level, err := ParseLevel(row.Level)
		if err != nil {
			return nil, fmt.Errorf("occupancy: vehicle journey %q: %w", row.VehicleJourneyId, err)
		}
		byKey[Key{
			VehicleJourneyId: row.VehicleJourneyId,
			Date:             row.Date,
			StopSequence:     row.StopSequence,
		}] = level
	}
	return &Store{byKey: byKey}, nil
}

// At returns the occupancy level observed at key, and whether any reading
// was recorded for it at all. A missing reading is reported through ok, not
// as an error: occupancy is an enrichment, not a required field.
func (s *Store) At(key Key) (Level, bool) {
	level, ok := s.byKey[key]
	return level, ok
}

// Empty reports whether the store holds no readings at all.
func (s *Store) Empty() bool { return len(s.byKey) == 0 }
