package storage

import "errors"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Application is one persisted admissions survey entry. Rows are created
// exclusively through InsertApplication's conflict-skip statement and are
// never updated in place.
//
// Optional fields are pointers: nil means the source text never mentioned
// the value and maps to NULL in the database.
type Application struct {
	ID            int64
	Program       string // combined "University - Program" display string
	Comments      *string
	DateAdded     string
	URL           string // natural key
	Status        *string
	Term          *string
	Citizenship   *string
	GPA           *float64
	GRE           *int
	GREVerbal     *int
	GREAW         *float64
	Degree        *string
	LLMProgram    string
	LLMUniversity string
}
