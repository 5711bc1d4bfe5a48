package model

import "time"

// Domain is a deduplicated hostname dimension record.
// A row is created on first sighting of a host and never updated.
type Domain struct {
	// ID is the database identifier.
	ID int64

	// Name is the lowercase hostname, unique across all domains.
	Name string
}

// URL is a deduplicated URL dimension record, unique per domain.
type URL struct {
	// ID is the database identifier.
	ID int64

	// DomainID references the owning Domain.
	DomainID int64

	// Path is the path plus query string portion of the URL.
	Path string

	// FullURL is the complete normalized URL string.
	FullURL string
}

// Tag is a deduplicated HTML tag name dimension record.
// Names are lowercase and match ^[a-z][a-z0-9]*$.
type Tag struct {
	// ID is the database identifier.
	ID int64

	// Name is the lowercase tag name, unique across all tags.
	Name string
}

// RequestRecord is an immutable fact row describing one pipeline attempt,
// successful or failed. Failed attempts carry an error message and zeroed
// count/size values; they are excluded from cache lookups and statistics.
//
// Design decision: We persist failed attempts rather than discarding them
// because failures are data. They contribute to the distinct-URL count and
// give operators visibility into which targets are unreachable.
type RequestRecord struct {
	// ID is the database identifier.
	ID int64

	// DomainID references the Domain dimension row.
	DomainID int64

	// URLID references the URL dimension row.
	URLID int64

	// TagID references the Tag dimension row.
	TagID int64

	// Count is the number of matching tags found. Zero for failed attempts.
	Count int

	// FetchTimeMs is the elapsed fetch time in milliseconds.
	// Recorded even for failed attempts to capture how long the failure took.
	FetchTimeMs int64

	// ResponseSizeBytes is the body size in bytes. Zero for failed attempts.
	ResponseSizeBytes int64

	// ErrorMessage is the user-facing failure description.
	// Empty for successful attempts.
	ErrorMessage string

	// CreatedAt is when the attempt was recorded.
	CreatedAt time.Time
}

// Failed reports whether this record describes a failed attempt.
func (r *RequestRecord) Failed() bool {
	return r.ErrorMessage != ""
}
