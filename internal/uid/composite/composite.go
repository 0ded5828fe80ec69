// Package composite derives identifiers for records that belong to two
// already-issued parents. Composites never allocate: they are unique because
// their parents are.
package composite

import (
	"fmt"
	"strings"

	"sportsuid/internal/uid/format"
	"sportsuid/internal/uid/models"
)

const (
	CertificatePrefix = "CERT"
	OrderPrefix       = "ORDR"
)

// Certificate builds the identifier of the certificate a student earns at an
// event.
func Certificate(eventID, studentID string) string {
	return CertificatePrefix + "-" + eventID + "-" + studentID
}

// Order builds the identifier of a coach's order for an event.
func Order(eventID, coachID string) string {
	return OrderPrefix + "-" + eventID + "-" + coachID
}

// Parts is a decomposed composite identifier.
type Parts struct {
	Kind    models.Kind
	EventID string
	// HolderID is the student for certificates and the coach for orders.
	HolderID string
}

// Split decomposes a composite whose parents are canonical identifiers.
// The event parent has a fixed width, which makes the split unambiguous even
// though both parents contain hyphens.
func Split(id string) (Parts, error) {
	prefix, rest, ok := strings.Cut(id, "-")
	if !ok {
		return Parts{}, models.Malformed("composite identifier has no prefix")
	}
	var kind models.Kind
	var holder models.Category
	switch prefix {
	case CertificatePrefix:
		kind, holder = models.KindCertificate, models.CategoryStudent
	case OrderPrefix:
		kind, holder = models.KindOrder, models.CategoryCoach
	default:
		return Parts{}, models.Malformed("unknown composite prefix")
	}
	if len(rest) != format.EventLength+1+format.UserLength || rest[format.EventLength] != '-' {
		return Parts{}, models.Malformed("composite identifier has the wrong shape")
	}
	eventID, holderID := rest[:format.EventLength], rest[format.EventLength+1:]

	ev, err := format.Parse(eventID)
	if err != nil {
		return Parts{}, fmt.Errorf("event parent: %w", err)
	}
	if ev.Kind != models.KindEvent {
		return Parts{}, models.Malformed("first parent is not an event")
	}
	h, err := format.Parse(holderID)
	if err != nil {
		return Parts{}, fmt.Errorf("holder parent: %w", err)
	}
	if h.Category != holder {
		return Parts{}, models.Malformed(fmt.Sprintf("%s holder must be category %q", kind, holder))
	}
	return Parts{Kind: kind, EventID: eventID, HolderID: holderID}, nil
}
