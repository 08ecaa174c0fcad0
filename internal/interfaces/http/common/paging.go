package common

import (
	"net/url"
	"strconv"
	"strings"
)

// MaxPageLimit caps ?limit= on list endpoints.
const MaxPageLimit = 200

// Paging is a 1-based page window.
type Paging struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// ParsePositiveInt parses positive integers with fallback.
func ParsePositiveInt(value string, fallback int) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, false
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback, false
	}
	return parsed, true
}

// ParsePaging reads ?page= and ?limit=. Bad values fall back silently.
func ParsePaging(query url.Values, defaultLimit int) Paging {
	page, _ := ParsePositiveInt(query.Get("page"), 1)
	limit, _ := ParsePositiveInt(query.Get("limit"), defaultLimit)
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return Paging{Page: page, Limit: limit}
}

// Window returns the [start, end) slice bounds for total items and records total.
func (p *Paging) Window(total int) (int, int) {
	p.Total = total
	start := total
	// Compare page counts first so huge ?page= values cannot overflow.
	if p.Page-1 < (total+p.Limit-1)/p.Limit {
		start = (p.Page - 1) * p.Limit
	}
	end := start + p.Limit
	if end > total {
		end = total
	}
	return start, end
}
