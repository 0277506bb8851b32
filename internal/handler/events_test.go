package handler

import (
	"net/http/httptest"
	"testing"
)

func TestLimitParam(t *testing.T) {
	cases := map[string]int{
		"":           50,
		"?limit=10":  10,
		"?limit=0":   50,
		"?limit=-3":  50,
		"?limit=abc": 50,
		"?limit=51":  50,
		"?limit=50":  50,
	}
	for query, want := range cases {
		r := httptest.NewRequest("GET", "/events"+query, nil)
		if got := limitParam(r, 50); got != want {
			t.Errorf("%q: expected %d, got %d", query, want, got)
		}
	}
}
