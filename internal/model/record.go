package model

import "time"

// Record is the plain record handed to storage by the importer. Fields are
// keyed by storage column and already normalized.
type Record struct {
	CreatedAt time.Time
	Fields    map[string]string
	ID        string
	OwnerID   string
	SourceRow int
}

// ImportRun is the audit entry written after an import finishes.
type ImportRun struct {
	StartedAt  time.Time
	FinishedAt time.Time
	ID         string
	SessionID  string
	OwnerID    string
	Kind       string
	Filename   string
	Policy     string
	Total      int
	Imported   int
	Skipped    int
	Errors     int
}
