package domain

import (
	"fmt"
	"strings"
)

// ShortCodeAlphabet lists the characters a short code may use. 0, O, 1, I and L
// are left out because they are easy to confuse when read aloud or typed.
const ShortCodeAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

const (
	MinShortCodeLength = 4
	MaxShortCodeLength = 8

	uuidLength = 36
)

// IdentifierKind is the verdict of Classify.
type IdentifierKind int

const (
	IdentifierAmbiguous IdentifierKind = iota
	IdentifierUUID
	IdentifierShortCode
)

func (k IdentifierKind) String() string {
	switch k {
	case IdentifierUUID:
		return "uuid"
	case IdentifierShortCode:
		return "short_code"
	default:
		return "ambiguous"
	}
}

var shortCodeChars = func() [128]bool {
	var set [128]bool
	for i := 0; i < len(ShortCodeAlphabet); i++ {
		set[ShortCodeAlphabet[i]] = true
	}
	return set
}()

// Classify sorts a raw identifier into exactly one of the three kinds.
// The UUID and short-code shapes cannot overlap: a UUID is 36 bytes long and
// carries hyphens, a short code is at most 8 bytes from a hyphen-free alphabet.
func Classify(raw string) IdentifierKind {
	switch {
	case isCanonicalUUID(raw):
		return IdentifierUUID
	case isShortCode(raw):
		return IdentifierShortCode
	default:
		return IdentifierAmbiguous
	}
}

// isCanonicalUUID accepts only the hyphenated 8-4-4-4-12 hex form.
func isCanonicalUUID(s string) bool {
	if len(s) != uuidLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch i {
		case 8, 13, 18, 23:
			if c != '-' {
				return false
			}
		default:
			if !isHex(c) {
				return false
			}
		}
	}
	return true
}

func isShortCode(s string) bool {
	if len(s) < MinShortCodeLength || len(s) > MaxShortCodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := upperASCII(s[i])
		if c >= 128 || !shortCodeChars[c] {
			return false
		}
	}
	return true
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func upperASCII(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

// SurveyID is the canonical survey identifier. The zero value is invalid.
// It can only be built from a UUID-shaped string, so a short code never ends
// up in a field typed as SurveyID.
type SurveyID struct {
	value string
}

// ParseSurveyID validates raw as a canonical UUID and lowercases it.
func ParseSurveyID(raw string) (SurveyID, error) {
	if Classify(raw) != IdentifierUUID {
		return SurveyID{}, fmt.Errorf("%w: %q is not a canonical survey id", ErrInvalidIdentifier, raw)
	}
	return SurveyID{value: strings.ToLower(raw)}, nil
}

func (id SurveyID) String() string {
	return id.value
}

func (id SurveyID) IsZero() bool {
	return id.value == ""
}

// NormalizeShortCode returns the upper-case display form of a short code.
func NormalizeShortCode(code string) string {
	return strings.ToUpper(code)
}
