package common

import (
	"math"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePaging(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  Paging
	}{
		{"Defaults", "", Paging{Page: 1, Limit: 20}},
		{"Explicit", "page=3&limit=5", Paging{Page: 3, Limit: 5}},
		{"Garbage", "page=x&limit=-1", Paging{Page: 1, Limit: 20}},
		{"Capped", "limit=100000", Paging{Page: 1, Limit: MaxPageLimit}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := url.ParseQuery(tc.query)
			assert.NoError(t, err)
			assert.Equal(t, tc.want, ParsePaging(q, 20))
		})
	}
}

func TestPaging_Window(t *testing.T) {
	cases := []struct {
		name       string
		page       int
		limit      int
		total      int
		start, end int
	}{
		{"First", 1, 2, 5, 0, 2},
		{"Last", 3, 2, 5, 4, 5},
		{"Past", 4, 2, 5, 5, 5},
		{"Empty", 1, 10, 0, 0, 0},
		{"Huge", math.MaxInt, 10, 5, 5, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Paging{Page: tc.page, Limit: tc.limit}
			start, end := p.Window(tc.total)
			assert.Equal(t, []int{tc.start, tc.end}, []int{start, end})
			assert.Equal(t, tc.total, p.Total)
		})
	}
}

func TestParsePositiveInt(t *testing.T) {
	v, ok := ParsePositiveInt(" 7 ", 1)
	assert.True(t, ok)
	assert.Equal(t, 7, v)

	v, ok = ParsePositiveInt(strconv.Itoa(0), 3)
	assert.False(t, ok)
	assert.Equal(t, 3, v)
}
