package format

import (
	"fmt"

	"sportsuid/internal/uid/models"
)

// LikePattern returns a SQL LIKE pattern matching every identifier of the
// partition. Within one partition only the sequence varies and it is
// zero-padded, so ordering matches lexicographically descending gives the
// highest sequence first.
func LikePattern(key models.PartitionKey) (string, error) {
	switch {
	case key.Category.IsRole():
		if !isUpperCode(key.Area) {
			return "", fmt.Errorf("partition %s: area must be a region code", key)
		}
		return fmt.Sprintf("%s_____%s%02d%04d", key.Category, key.Area, key.Month, key.Year), nil
	case key.Category == models.CategoryEvent:
		if len(key.Area) != 4 || !isUpperCode(key.Area[:2]) || !isUpperCode(key.Area[2:]) {
			return "", fmt.Errorf("partition %s: area must be sport and region codes", key)
		}
		return fmt.Sprintf("%s____-%s-%s-__%02d%02d", eventPrefix, key.Area[:2], key.Area[2:], key.Month, key.Year%100), nil
	default:
		return "", fmt.Errorf("partition %s: %w", key, models.ErrInvalidCategory)
	}
}
