package domain

import "time"

// Source is an ingest feed the relay can place into a slot. The relay core
// treats sources as read-only input; they are managed by the catalog.
type Source struct {
	ID       SourceID
	Name     string
	URL      string
	Username string
	Password string
	Online   bool

	CreatedAt time.Time
}
