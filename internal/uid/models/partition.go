package models

import (
	"fmt"
	"strconv"
	"strings"
)

// PartitionKey names an independent sequence space: every identifier issued
// under the same key shares one monotonic counter.
//
// Area is the region code for user identifiers and the sport code followed
// by the region code for event identifiers ("CRMH").
type PartitionKey struct {
	Category Category
	Area     string
	Month    int
	Year     int
}

// String is the canonical storage form, e.g. "a:MH:03:2025".
func (k PartitionKey) String() string {
	return fmt.Sprintf("%s:%s:%02d:%04d", k.Category, k.Area, k.Month, k.Year)
}

// Capacity is the highest sequence the partition may issue.
func (k PartitionKey) Capacity() int {
	return k.Category.Capacity()
}

// ParsePartitionKey is the inverse of PartitionKey.String.
func ParsePartitionKey(s string) (PartitionKey, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return PartitionKey{}, fmt.Errorf("partition key %q: want 4 fields, got %d", s, len(parts))
	}
	month, err := strconv.Atoi(parts[2])
	if err != nil || month < 1 || month > 12 {
		return PartitionKey{}, fmt.Errorf("partition key %q: bad month", s)
	}
	year, err := strconv.Atoi(parts[3])
	if err != nil || len(parts[3]) != 4 {
		return PartitionKey{}, fmt.Errorf("partition key %q: bad year", s)
	}
	cat := Category(parts[0])
	if !cat.Allocates() {
		return PartitionKey{}, fmt.Errorf("partition key %q: %w", s, ErrInvalidCategory)
	}
	return PartitionKey{Category: cat, Area: parts[1], Month: month, Year: year}, nil
}
