package models

import "time"

// Document is one stored document. Fields is the decoded JSON object;
// OwnerID is the user that first wrote it.
type Document struct {
	Collection string
	ID         string
	OwnerID    string
	Fields     map[string]any
	UpdatedAt  time.Time
}

// DocumentQuery selects documents of one collection, optionally filtered
// by a top-level field and ordered by another.
type DocumentQuery struct {
	Collection  string
	FilterField string
	FilterValue string
	OrderBy     string
	Descending  bool
	Limit       int
}
