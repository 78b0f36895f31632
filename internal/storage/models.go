package storage

import "github.com/jigintern/2025-summer-c/internal/geo"

// CurrentSchemaVersion is written into every stored record.
// Version 1 records carried a top-level "coordinate" box instead of "geometry".
const CurrentSchemaVersion = 2

// AllYears is the year sentinel meaning "no temporal filter".
const AllYears = -1

// MinYear and MaxYear bound the years a decade may name.
const (
	MinYear = 0
	MaxYear = 9999
)

// Decade is a record's time range. Despite the name it may span any number
// of years. See Years for which years it is indexed under.
type Decade struct {
	GT  int `json:"gt"`
	LTE int `json:"lte"`
}

// Years returns the years d is indexed under: every y with GT <= y < LTE, or
// the single year LTE when GT >= LTE. A nil decade is not indexed.
func (d *Decade) Years() []int {
	if d == nil {
		return nil
	}
	if d.GT >= d.LTE {
		return []int{d.LTE}
	}
	years := make([]int, 0, d.LTE-d.GT)
	for y := d.GT; y < d.LTE; y++ {
		years = append(years, y)
	}
	return years
}

// Covers reports whether year is one of d.Years().
func (d *Decade) Covers(year int) bool {
	if d == nil {
		return false
	}
	if d.GT >= d.LTE {
		return year == d.LTE
	}
	return d.GT <= year && year < d.LTE
}

// Span returns the first and last indexed year. ok is false for a nil decade.
func (d *Decade) Span() (first, last int, ok bool) {
	if d == nil {
		return 0, 0, false
	}
	if d.GT >= d.LTE {
		return d.LTE, d.LTE, true
	}
	return d.GT, d.LTE - 1, true
}

// Comment is one entry of a record's thread.
type Comment struct {
	ID        string `json:"id"`
	Comment   string `json:"comment"`
	CreatedAt string `json:"created_at"`
}

// Record is a map note. Thread is the only field that changes after creation.
type Record struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Geometry      geo.Geometry `json:"geometry"`
	Decade        *Decade      `json:"decade"`
	Comment       string       `json:"comment"`
	Photos        []string     `json:"photos"`
	Thread        []Comment    `json:"thread"`
	CreatedAt     string       `json:"created_at"`
	SchemaVersion int          `json:"schema_version"`

	// Version is the store version stamp the record was read at.
	Version uint64 `json:"-"`
}
