// Package codes maps free-text categories, regions, and sports onto the fixed
// short codes identifiers are built from.
//
// Categories are a closed set and unknown ones are rejected. Regions and
// sports come from user input, so unknown names degrade to a derived code
// instead of blocking registration.
package codes

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"sportsuid/internal/uid/models"
)

const (
	DictionaryRegion = "region"
	DictionarySport  = "sport"
)

// normalize trims, case-folds, treats '_' and '-' as spaces, and collapses
// runs of whitespace.
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Map(func(r rune) rune {
		if r == '_' || r == '-' {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// derive builds a two-letter code from the first two ASCII letters of the
// normalised input. Everything else is dropped so symbol-laden input can
// never leak into the identifier grammar. Short input is padded with 'X'.
func derive(normalized string) string {
	var b strings.Builder
	for i := 0; i < len(normalized) && b.Len() < 2; i++ {
		c := normalized[i]
		if c >= 'a' && c <= 'z' {
			b.WriteByte(c - 'a' + 'A')
		}
	}
	for b.Len() < 2 {
		b.WriteByte('X')
	}
	return b.String()
}

// lookup resolves a normalised name against dict, also accepting the codes
// themselves. fallback is true when the result was derived.
func lookup(normalized string, dict map[string]string, known map[string]struct{}) (code string, fallback bool) {
	if code, ok := dict[normalized]; ok {
		return code, false
	}
	if len(normalized) == 2 {
		upper := strings.ToUpper(normalized)
		if _, ok := known[upper]; ok {
			return upper, false
		}
	}
	return derive(normalized), true
}

// ResolveCategory maps a role or entity name to its category code.
func ResolveCategory(category string) (models.Category, error) {
	if code, ok := categories[normalize(category)]; ok {
		return models.Category(code), nil
	}
	return "", models.ErrInvalidCategory
}

// ResolveRegion maps a state or union territory name to its two-letter code.
// An empty name is ErrMissingRegion; an unknown one yields a derived code and
// fallback=true.
func ResolveRegion(name string) (code string, fallback bool, err error) {
	n := normalize(name)
	if n == "" {
		return "", false, models.ErrMissingRegion
	}
	code, fallback = lookup(n, regions, regionCodes)
	return code, fallback, nil
}

// ResolveSport maps a sport name to its two-letter code. An empty name is the
// reserved OtherSport code and never an error.
func ResolveSport(name string) (code string, fallback bool) {
	n := normalize(name)
	if n == "" {
		return OtherSport, false
	}
	return lookup(n, sports, sportCodes)
}

// FallbackObserver is notified each time a dictionary miss falls back to a
// derived code.
type FallbackObserver interface {
	ObserveFallback(dictionary string)
}

// Resolver builds partition keys from caller input, logging every fallback.
type Resolver struct {
	logger   *slog.Logger
	observer FallbackObserver
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func WithFallbackObserver(o FallbackObserver) Option {
	return func(r *Resolver) {
		r.observer = o
	}
}

// NewResolver constructs a Resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// UserPartition resolves the partition for a user identifier issued at t.
func (r *Resolver) UserPartition(ctx context.Context, category, region string, t time.Time) (models.PartitionKey, error) {
	cat, err := ResolveCategory(category)
	if err != nil {
		return models.PartitionKey{}, err
	}
	if !cat.IsRole() {
		return models.PartitionKey{}, models.ErrInvalidCategory
	}
	regionCode, err := r.region(ctx, region)
	if err != nil {
		return models.PartitionKey{}, err
	}
	return models.PartitionKey{
		Category: cat,
		Area:     regionCode,
		Month:    int(t.Month()),
		Year:     t.Year(),
	}, nil
}

// EventPartition resolves the partition for an event identifier dated t and
// returns the resolved sport and region codes alongside it.
func (r *Resolver) EventPartition(ctx context.Context, sport, region string, t time.Time) (key models.PartitionKey, sportCode, regionCode string, err error) {
	regionCode, err = r.region(ctx, region)
	if err != nil {
		return models.PartitionKey{}, "", "", err
	}
	sportCode, fallback := ResolveSport(sport)
	if fallback {
		r.fallback(ctx, DictionarySport, sport, sportCode)
	}
	key = models.PartitionKey{
		Category: models.CategoryEvent,
		Area:     sportCode + regionCode,
		Month:    int(t.Month()),
		Year:     t.Year(),
	}
	return key, sportCode, regionCode, nil
}

func (r *Resolver) region(ctx context.Context, name string) (string, error) {
	code, fallback, err := ResolveRegion(name)
	if err != nil {
		return "", err
	}
	if fallback {
		r.fallback(ctx, DictionaryRegion, name, code)
	}
	return code, nil
}

func (r *Resolver) fallback(ctx context.Context, dictionary, input, code string) {
	if r.observer != nil {
		r.observer.ObserveFallback(dictionary)
	}
	r.logger.WarnContext(ctx, "unmapped name, using derived code",
		"dictionary", dictionary,
		"input_length", len(input),
		"code", code,
	)
}
