package application

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/sngm3741/chat-survey/api/internal/survey/domain"
	"golang.org/x/text/language"
)

const (
	// attemptsPerLength bounds short-code draws before moving to the next length.
	attemptsPerLength = 10

	// aliasAttempts bounds pooled creator-alias draws before the time-based fallback.
	aliasAttempts = 10

	aliasSuffixSpace = 10000
)

// IdentifierIssuer hands out new short codes and creator aliases. It reads the
// store once per candidate and never writes.
type IdentifierIssuer struct {
	store    RecordStore
	observer Observer
	intn     func(n int) int
	now      func() time.Time
}

// IssuerOption customises an IdentifierIssuer.
type IssuerOption func(*IdentifierIssuer)

// WithRandom replaces the random source. intn must return a value in [0, n).
func WithRandom(intn func(n int) int) IssuerOption {
	return func(i *IdentifierIssuer) { i.intn = intn }
}

func WithIssuerClock(now func() time.Time) IssuerOption {
	return func(i *IdentifierIssuer) { i.now = now }
}

func WithIssuerObserver(o Observer) IssuerOption {
	return func(i *IdentifierIssuer) {
		if o != nil {
			i.observer = o
		}
	}
}

func NewIdentifierIssuer(store RecordStore, opts ...IssuerOption) *IdentifierIssuer {
	i := &IdentifierIssuer{
		store:    store,
		observer: NopObserver{},
		intn:     rand.IntN,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// IssueShortCode draws codes of increasing length until one is free.
// ErrIdentifierSpaceExhausted means every length up to the maximum was saturated.
func (i *IdentifierIssuer) IssueShortCode(ctx context.Context) (string, error) {
	for length := domain.MinShortCodeLength; length <= domain.MaxShortCodeLength; length++ {
		for attempt := 0; attempt < attemptsPerLength; attempt++ {
			candidate := i.drawShortCode(length)
			taken, err := i.exists(ctx, EqFold{Field: FieldShortCode, Value: candidate})
			if err != nil {
				return "", fmt.Errorf("issue short code: %w", err)
			}
			if !taken {
				return candidate, nil
			}
		}
	}
	i.observer.IdentifierSpaceExhausted("short_code")
	return "", fmt.Errorf("%w: no free short code up to length %d", domain.ErrIdentifierSpaceExhausted, domain.MaxShortCodeLength)
}

// IssueCreatorAlias draws a name from the pool matching languageTag plus a
// four-digit suffix. After aliasAttempts collisions it appends a minute-resolution
// time suffix instead, which always terminates.
func (i *IdentifierIssuer) IssueCreatorAlias(ctx context.Context, languageTag string) (string, error) {
	pool := aliasPoolFor(languageTag)
	for attempt := 0; attempt < aliasAttempts; attempt++ {
		candidate := fmt.Sprintf("%s%04d", pool[i.intn(len(pool))], i.intn(aliasSuffixSpace))
		taken, err := i.exists(ctx, Eq{Field: FieldCreatorName, Value: candidate})
		if err != nil {
			return "", fmt.Errorf("issue creator alias: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	suffix := strconv.FormatInt(i.now().Unix()/60, 36)
	return pool[i.intn(len(pool))] + "-" + suffix, nil
}

func (i *IdentifierIssuer) drawShortCode(length int) string {
	var b strings.Builder
	b.Grow(length)
	for n := 0; n < length; n++ {
		b.WriteByte(domain.ShortCodeAlphabet[i.intn(len(domain.ShortCodeAlphabet))])
	}
	return b.String()
}

func (i *IdentifierIssuer) exists(ctx context.Context, where Predicate) (bool, error) {
	_, err := i.store.FindOne(ctx, CollectionSurveys, where)
	if errors.Is(err, ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

var aliasMatcher = language.NewMatcher(aliasLanguages)

// aliasPoolFor picks the word pool closest to tag, defaulting to English.
func aliasPoolFor(tag string) []string {
	tags, _, err := language.ParseAcceptLanguage(tag)
	if err != nil || len(tags) == 0 {
		return aliasPools[language.English]
	}
	_, index, _ := aliasMatcher.Match(tags...)
	return aliasPools[aliasLanguages[index]]
}
