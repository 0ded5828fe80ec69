package handler

import (
	"sportsuid/internal/uid/composite"
	"sportsuid/internal/uid/models"
)

type UIDResponse struct {
	UID     string `json:"uid"`
	Display string `json:"display,omitempty"`
}

type BatchResponse struct {
	UIDs []string `json:"uids"`
}

// ComponentsResponse is the decoded form of a user or event identifier.
type ComponentsResponse struct {
	Kind     string `json:"kind"`
	Category string `json:"category"`
	Sequence int    `json:"sequence"`
	Region   string `json:"region"`
	Sport    string `json:"sport,omitempty"`
	Day      int    `json:"day,omitempty"`
	Month    int    `json:"month"`
	Year     int    `json:"year"`
}

// ValidationResponse answers GET /v1/uids/{uid}. Issued is set only when the
// caller asked for verification.
type ValidationResponse struct {
	Valid      bool                `json:"valid"`
	Components *ComponentsResponse `json:"components,omitempty"`
	Error      string              `json:"error,omitempty"`
	Issued     *bool               `json:"issued,omitempty"`
}

type DisplayResponse struct {
	Display string `json:"display"`
}

type CompositeResponse struct {
	Kind     string `json:"kind"`
	EventID  string `json:"event_id"`
	HolderID string `json:"holder_id"`
}

func fromComponents(c *models.Components) *ComponentsResponse {
	if c == nil {
		return nil
	}
	return &ComponentsResponse{
		Kind:     string(c.Kind),
		Category: string(c.Category),
		Sequence: c.Sequence,
		Region:   c.Region,
		Sport:    c.Sport,
		Day:      c.Day,
		Month:    c.Month,
		Year:     c.Year,
	}
}

func fromValidation(res models.ValidationResult) *ValidationResponse {
	out := &ValidationResponse{Valid: res.Valid, Components: fromComponents(res.Components)}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

func fromParts(p composite.Parts) *CompositeResponse {
	return &CompositeResponse{Kind: string(p.Kind), EventID: p.EventID, HolderID: p.HolderID}
}
