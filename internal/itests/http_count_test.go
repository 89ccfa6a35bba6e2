package itests

import (
	"net/http"
	"testing"

	"TabQueryAPI/internal/filter"
)

func Test_Count_Person(t *testing.T) {
	cases := []struct {
		name string
		req  filter.Request
		want float64
	}{
		{"all", filter.Request{}, 5},
		{"pagination ignored", filter.Request{Limit: intp(1), Page: intp(2)}, 5},
		{"null email", filter.Request{Filter: []filter.SingleFilter{{Field: "email", Type: filter.EqNull}}}, 1},
		{"role dev", filter.Request{Filter: []filter.SingleFilter{{Field: "role", Type: filter.Eq, Value: "dev"}}}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, out := getJSON(t, "person", "count", tc.req)
			if status != http.StatusOK {
				t.Fatalf("status %d: %v", status, out)
			}
			if out["count"] != tc.want {
				t.Fatalf("count = %v, want %v", out["count"], tc.want)
			}
		})
	}
}

func Test_Count_Unknown_Model(t *testing.T) {
	status, _ := postJSON(t, "ghost", "count", filter.Request{})
	if status != http.StatusNotFound {
		t.Fatalf("status %d", status)
	}
}
