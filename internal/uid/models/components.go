package models

import "time"

// Components is the decomposed form of a user or event identifier.
type Components struct {
	Kind     Kind     `json:"kind"`
	Category Category `json:"category"`
	Sequence int      `json:"sequence"`
	Region   string   `json:"region"`
	// Sport and Day are set for event identifiers only.
	Sport string `json:"sport,omitempty"`
	Day   int    `json:"day,omitempty"`
	Month int    `json:"month"`
	Year  int    `json:"year"`
}

// PartitionKey returns the sequence space the identifier was allocated from.
func (c Components) PartitionKey() PartitionKey {
	area := c.Region
	if c.Kind == KindEvent {
		area = c.Sport + c.Region
	}
	return PartitionKey{Category: c.Category, Area: area, Month: c.Month, Year: c.Year}
}

// ValidationResult is the never-failing outcome of validating an identifier.
type ValidationResult struct {
	Valid      bool
	Components *Components
	// Err explains why the identifier was rejected. It wraps
	// ErrMalformedIdentifier when set.
	Err error
}

// GenerateRequest asks for a user identifier.
type GenerateRequest struct {
	Category string
	Region   string
	// Date selects the month/year partition. Nil means the request time.
	Date *time.Time
}

// EventRequest asks for an event identifier.
type EventRequest struct {
	Sport  string
	Region string
	// Date is the event date; it fills the ddmmyy field and the partition.
	// Nil means the request time.
	Date *time.Time
}

// Issued describes one successful allocation. It is what gets published to
// downstream subscribers.
type Issued struct {
	UID       string       `json:"uid"`
	Kind      Kind         `json:"kind"`
	Partition PartitionKey `json:"-"`
	Sequence  int          `json:"sequence"`
	IssuedAt  time.Time    `json:"issued_at"`
	RequestID string       `json:"request_id,omitempty"`
}
