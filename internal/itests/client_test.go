package itests

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"testing"
	"time"

	"TabQueryAPI/internal/filter"
	"TabQueryAPI/internal/querystring"
)

var client = &http.Client{Timeout: 5 * time.Second}

// getJSON issues GET /api/<model>/<endpoint> with req encoded as query string.
func getJSON(t *testing.T, modelName, endpoint string, req filter.Request) (int, map[string]any) {
	t.Helper()
	if testBaseURL == "" || httpSrv == nil {
		t.Fatal("bootstrap not ready: HTTP server/baseURL missing")
	}
	resp, err := client.Get(testBaseURL + "/api/" + modelName + "/" + endpoint + querystring.Encode(req))
	if err != nil {
		t.Fatalf("GET %s failed: %v", endpoint, err)
	}
	return decode(t, resp)
}

// postJSON issues POST /api/<model>/<endpoint> with req as JSON body.
func postJSON(t *testing.T, modelName, endpoint string, req filter.Request) (int, map[string]any) {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := client.Post(testBaseURL+"/api/"+modelName+"/"+endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s failed: %v", endpoint, err)
	}
	return decode(t, resp)
}

func decode(t *testing.T, resp *http.Response) (int, map[string]any) {
	t.Helper()
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("invalid JSON response: %v; body=%s", err, string(b))
	}
	return resp.StatusCode, out
}

// itemIDs returns the id column of an /index response in response order.
func itemIDs(t *testing.T, out map[string]any) []int {
	t.Helper()
	items, ok := out["items"].([]any)
	if !ok {
		t.Fatalf("items missing in %v", out)
	}
	ids := make([]int, 0, len(items))
	for _, it := range items {
		row, _ := it.(map[string]any)
		id, ok := row["id"].(float64)
		if !ok {
			t.Fatalf("row without id: %v", it)
		}
		ids = append(ids, int(id))
	}
	return ids
}

func sortedIDs(t *testing.T, out map[string]any) []int {
	ids := itemIDs(t, out)
	sort.Ints(ids)
	return ids
}

func intp(v int) *int { return &v }
