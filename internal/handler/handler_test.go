package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"TabQueryAPI/internal/model"
)

const personYAML = `
table: people
fields:
  id: id
  name: name
  role: roles.name
relations:
  roles:
    type: has_many
    model: role
default_order:
  - id: asc
`

func setupModels(t *testing.T) {
	t.Helper()
	model.ResetRegistry()
	model.ResetOptionsCache()
	t.Cleanup(model.ResetRegistry)
	t.Cleanup(model.ResetOptionsCache)

	docs := map[string]string{
		"person": personYAML,
		"role":   "table: roles\nfields:\n  name: name\n",
		"free":   "table: free\nallow_all_fields: true\n",
	}
	for name, doc := range docs {
		m, err := model.ParseModel(name, []byte(doc))
		if err != nil {
			t.Fatal(err)
		}
		model.Registry[name] = m
	}
	if err := model.LinkModelRelations(); err != nil {
		t.Fatal(err)
	}
	if err := model.BuildGenerators(); err != nil {
		t.Fatal(err)
	}
}

func newMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/{model}/options", OptionsHandler)
	mux.HandleFunc("/api/{model}/index", IndexHandler)
	mux.HandleFunc("/api/{model}/count", CountHandler)
	return mux
}

func do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	newMux().ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("response is not JSON: %q", w.Body.String())
		}
	}
	return w, out
}

func TestOptionsGet(t *testing.T) {
	setupModels(t)
	w, out := do(t, http.MethodGet, "/api/person/options?filter[0][field]=role&filter[0][type]=eq&filter[0][value]=admin&limit=10&page=3", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type %q", ct)
	}
	want := map[string]any{
		"where":   map[string]any{"roles": map[string]any{"name": map[string]any{"equals": "admin"}}},
		"skip":    20.0,
		"take":    10.0,
		"orderBy": []any{map[string]any{"id": "asc"}},
		"select":  false,
		"include": false,
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestOptionsPost(t *testing.T) {
	setupModels(t)
	body := `{"filter":[{"field":"id","type":"in","value":["1",2]}],"order":[{"field":"name","dir":"desc"}],"cursor":"id:5"}`
	w, out := do(t, http.MethodPost, "/api/person/options", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if diff := cmp.Diff(map[string]any{"id": map[string]any{"in": []any{1.0, 2.0}}}, out["where"]); diff != "" {
		t.Fatalf("where (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"id": "5"}, out["cursor"]); diff != "" {
		t.Fatalf("cursor (-want +got):\n%s", diff)
	}
}

func TestErrorStatuses(t *testing.T) {
	setupModels(t)
	cases := []struct {
		name    string
		method  string
		target  string
		body    string
		status  int
		message string
	}{
		{"unknown model", http.MethodGet, "/api/ghost/options", "", http.StatusNotFound, "model not found: ghost"},
		{"field not allowed", http.MethodGet, "/api/person/options?filter[0][field]=secret&filter[0][type]=eq&filter[0][value]=1", "", http.StatusBadRequest, "secret is not filterable"},
		{"sort not allowed", http.MethodGet, "/api/person/options?order[0][field]=secret&order[0][dir]=asc", "", http.StatusBadRequest, "secret is not sortable"},
		{"array for scalar operator", http.MethodPost, "/api/person/options", `{"filter":[{"field":"id","type":"=","value":[1,2]}]}`, http.StatusBadRequest, "Filter type = does not support array values"},
		{"unknown operator", http.MethodPost, "/api/person/options", `{"filter":[{"field":"id","type":"between","value":1}]}`, http.StatusBadRequest, "between is not a valid filter type"},
		{"malformed query", http.MethodGet, "/api/person/options?limit=ten", "", http.StatusBadRequest, ""},
		{"unknown body key", http.MethodPost, "/api/person/options", `{"filters":[]}`, http.StatusBadRequest, ""},
		{"bad direction in body", http.MethodPost, "/api/person/count", `{"order":[{"field":"id","dir":"up"}]}`, http.StatusBadRequest, ""},
		{"method", http.MethodPut, "/api/person/index", "", http.StatusMethodNotAllowed, ""},
		{"invalid column", http.MethodGet, "/api/free/index?filter[0][field]=a-b&filter[0][type]=eq&filter[0][value]=1", "", http.StatusBadRequest, ""},
		{"no database", http.MethodGet, "/api/person/count", "", http.StatusServiceUnavailable, "database is not configured"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, out := do(t, tc.method, tc.target, tc.body)
			if w.Code != tc.status {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tc.status, w.Body.String())
			}
			msg, _ := out["error"].(string)
			if msg == "" {
				t.Fatalf("missing error message: %s", w.Body.String())
			}
			if tc.message != "" && msg != tc.message {
				t.Fatalf("error = %q, want %q", msg, tc.message)
			}
		})
	}
}

func TestRequestIDContext(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := RequestID(r.Context()); got != "" {
		t.Fatalf("unexpected id %q", got)
	}
	ctx := WithRequestID(r.Context(), "abc")
	if got := RequestID(ctx); got != "abc" {
		t.Fatalf("RequestID = %q", got)
	}
}
