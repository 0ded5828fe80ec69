package handler

import (
	"fmt"
	"strings"
	"time"

	dErrors "sportsuid/pkg/domain-errors"
)

const (
	maxNameLength = 64
	maxIDLength   = 64
	dateLayout    = "2006-01-02"
)

// GenerateRequest is the body of POST /v1/uids and one item of a batch.
type GenerateRequest struct {
	Category string `json:"category"`
	Region   string `json:"region"`
	// Date is YYYY-MM-DD or RFC 3339. Empty means now.
	Date string `json:"date,omitempty"`

	parsedDate *time.Time
}

// Validate checks presence and size; the service resolves the names.
func (r *GenerateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Category) > maxNameLength || len(r.Region) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, "category and region must be at most 64 characters")
	}
	r.Category = strings.TrimSpace(r.Category)
	if r.Category == "" {
		return dErrors.New(dErrors.CodeValidation, "category is required")
	}
	d, err := parseDate(r.Date)
	if err != nil {
		return err
	}
	r.parsedDate = d
	return nil
}

func (r *GenerateRequest) ParsedDate() *time.Time {
	return r.parsedDate
}

// BatchRequest is the body of POST /v1/uids/batch.
type BatchRequest struct {
	Items []GenerateRequest `json:"items"`
}

func (r *BatchRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Items) == 0 {
		return dErrors.New(dErrors.CodeValidation, "items is required")
	}
	for i := range r.Items {
		if err := r.Items[i].Validate(); err != nil {
			return itemError(i, err)
		}
	}
	return nil
}

// EventRequest is the body of POST /v1/events/uids. Sport may be empty.
type EventRequest struct {
	Sport  string `json:"sport"`
	Region string `json:"region"`
	Date   string `json:"date,omitempty"`

	parsedDate *time.Time
}

func (r *EventRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Sport) > maxNameLength || len(r.Region) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, "sport and region must be at most 64 characters")
	}
	d, err := parseDate(r.Date)
	if err != nil {
		return err
	}
	r.parsedDate = d
	return nil
}

func (r *EventRequest) ParsedDate() *time.Time {
	return r.parsedDate
}

// CertificateRequest is the body of POST /v1/certificates/uids.
type CertificateRequest struct {
	EventID   string `json:"event_id"`
	StudentID string `json:"student_id"`
}

func (r *CertificateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return requireIDs(&r.EventID, "event_id", &r.StudentID, "student_id")
}

// OrderRequest is the body of POST /v1/orders/uids.
type OrderRequest struct {
	EventID string `json:"event_id"`
	CoachID string `json:"coach_id"`
}

func (r *OrderRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return requireIDs(&r.EventID, "event_id", &r.CoachID, "coach_id")
}

func requireIDs(a *string, aName string, b *string, bName string) error {
	for _, f := range []struct {
		v    *string
		name string
	}{{a, aName}, {b, bName}} {
		*f.v = strings.TrimSpace(*f.v)
		if *f.v == "" {
			return dErrors.New(dErrors.CodeValidation, f.name+" is required")
		}
		if len(*f.v) > maxIDLength {
			return dErrors.New(dErrors.CodeValidation, f.name+" is too long")
		}
	}
	return nil
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "date must be YYYY-MM-DD or RFC 3339")
	}
	return &t, nil
}

func itemError(i int, err error) error {
	msg := err.Error()
	if de, ok := dErrors.As(err); ok {
		msg = de.Message
	}
	return dErrors.Wrap(err, dErrors.CodeOf(err), fmt.Sprintf("items[%d]: %s", i, msg))
}
