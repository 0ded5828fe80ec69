package models

// Kind is the identifier grammar an identifier belongs to.
type Kind string

const (
	KindUser        Kind = "user"
	KindEvent       Kind = "event"
	KindCertificate Kind = "certificate"
	KindOrder       Kind = "order"
)

// Category is the fixed prefix identifying what an identifier names.
// Role categories are single lowercase letters; entity categories are
// uppercase multi-letter prefixes.
type Category string

const (
	CategoryStudent       Category = "a"
	CategoryCoach         Category = "c"
	CategoryInstitute     Category = "i"
	CategoryClub          Category = "b"
	CategoryEventIncharge Category = "e"

	CategoryEvent       Category = "EVT"
	CategoryCertificate Category = "CERT"
	CategoryOrder       Category = "ORDR"
)

// Sequence capacities. Each equals the largest value the grammar's
// zero-padded sequence field can hold.
const (
	UserCapacity  = 99999
	EventCapacity = 9999
)

// Kind returns the grammar the category is rendered with.
func (c Category) Kind() Kind {
	switch c {
	case CategoryEvent:
		return KindEvent
	case CategoryCertificate:
		return KindCertificate
	case CategoryOrder:
		return KindOrder
	default:
		return KindUser
	}
}

// IsRole reports whether c is one of the closed set of user role categories.
func (c Category) IsRole() bool {
	switch c {
	case CategoryStudent, CategoryCoach, CategoryInstitute, CategoryClub, CategoryEventIncharge:
		return true
	}
	return false
}

// Allocates reports whether identifiers of this category consume a sequence.
// Certificates and orders are composites and never allocate.
func (c Category) Allocates() bool {
	return c.IsRole() || c == CategoryEvent
}

// Capacity is the highest sequence number a partition of c may issue.
func (c Category) Capacity() int {
	if c == CategoryEvent {
		return EventCapacity
	}
	return UserCapacity
}

func (c Category) String() string {
	return string(c)
}
