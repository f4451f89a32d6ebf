package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/filmlink/filmlink/internal/config"
	"github.com/filmlink/filmlink/internal/logger"
	"github.com/filmlink/filmlink/internal/metadata"
	"github.com/filmlink/filmlink/internal/metadata/mock"
	"github.com/filmlink/filmlink/internal/scheduler"
	"github.com/filmlink/filmlink/internal/settings"
	"github.com/filmlink/filmlink/internal/testutil"
)

type testServer struct {
	*Server
	meta *metadata.Service
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tdb := testutil.NewTestDB(t)

	cfg := config.Default()
	cfg.Suggest.QuietIntervalMS = 5

	meta := metadata.NewServiceWithClient(mock.NewTMDBClient(), metadata.DefaultCacheConfig(), tdb.Logger)
	store := settings.NewService(tdb.Conn, "", tdb.Logger)
	logs := logger.New(logger.Config{Level: "debug", Format: "json", Output: &strings.Builder{}})

	server := NewServer(cfg, meta, store, logs, tdb.Logger)
	return &testServer{Server: server, meta: meta}
}

func (ts *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	ts.echo.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) createSession(t *testing.T, kind string) string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/v1/sessions", `{"kind":"`+kind+`"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("createSession status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var resp createSessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.ID == "" {
		t.Fatal("createSession returned empty id")
	}
	return resp.ID
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", "")

	if rec.Code != http.StatusOK {
		t.Errorf("HealthCheck status = %d, want %d", rec.Code, http.StatusOK)
	}

	var response map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["status"] != "ok" {
		t.Errorf("HealthCheck status = %q, want %q", response["status"], "ok")
	}
}

func TestGetStatus(t *testing.T) {
	ts := setupTestServer(t)
	ts.createSession(t, "movie")

	rec := ts.do(t, http.MethodGet, "/api/v1/status?check=true", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GetStatus status = %d, want %d", rec.Code, http.StatusOK)
	}

	var response statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response.Version != config.Version {
		t.Errorf("Version = %q, want %q", response.Version, config.Version)
	}
	if response.Provider.Name != "tmdb-mock" {
		t.Errorf("Provider.Name = %q, want tmdb-mock", response.Provider.Name)
	}
	if !response.Provider.Configured {
		t.Error("Provider.Configured = false, want true")
	}
	if response.Provider.Reachable == nil || !*response.Provider.Reachable {
		t.Error("Provider.Reachable should be true with check=true")
	}
	if response.Sessions != 1 {
		t.Errorf("Sessions = %d, want 1", response.Sessions)
	}
}

func TestTasks(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/tasks", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("ListTasks status = %d, want %d", rec.Code, http.StatusOK)
	}
	var tasks []scheduler.TaskInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &tasks); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "provider-check" {
		t.Fatalf("tasks = %+v, want only provider-check", tasks)
	}

	rec = ts.do(t, http.MethodPost, "/api/v1/tasks/provider-check/run", "")
	if rec.Code != http.StatusAccepted {
		t.Errorf("RunTask status = %d, want %d", rec.Code, http.StatusAccepted)
	}

	rec = ts.do(t, http.MethodPost, "/api/v1/tasks/unknown/run", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("RunTask unknown status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestCreateSession_InvalidKind(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/sessions", `{"kind":"podcast"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestGetSuggestions(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.createSession(t, "movie")

	rec := ts.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/suggestions?query=dune", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp suggestionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Stale {
		t.Error("Stale = true, want false")
	}
	if len(resp.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(resp.Items))
	}
	if resp.Items[0].Candidate.Title != "Dune" {
		t.Errorf("Items[0].Title = %q, want Dune", resp.Items[0].Candidate.Title)
	}
	if resp.Items[0].Display.Description != "2021, Science Fiction, Adventure" {
		t.Errorf("Items[0].Description = %q", resp.Items[0].Display.Description)
	}
}

func TestGetSuggestions_ShortAndDuplicate(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.createSession(t, "tv")

	rec := ts.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/suggestions?query=br", "")
	var resp suggestionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Skip != "too_short" || len(resp.Items) != 0 {
		t.Errorf("short query: skip = %q, items = %d", resp.Skip, len(resp.Items))
	}

	ts.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/suggestions?query=breaking", "")
	rec = ts.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/suggestions?query=breaking", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Skip != "duplicate" {
		t.Errorf("repeated query: skip = %q, want duplicate", resp.Skip)
	}
}

func TestGetSuggestions_SupersededRequestIsStale(t *testing.T) {
	ts := setupTestServer(t)
	ts.cfg.Suggest.QuietIntervalMS = 200
	id := ts.createSession(t, "movie")

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		first <- ts.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/suggestions?query=bat", "")
	}()

	time.Sleep(50 * time.Millisecond)
	second := ts.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/suggestions?query=batman", "")

	var resp suggestionsResponse
	if err := json.Unmarshal((<-first).Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !resp.Stale || len(resp.Items) != 0 {
		t.Errorf("first request: stale = %v, items = %d; want stale and empty", resp.Stale, len(resp.Items))
	}

	if err := json.Unmarshal(second.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Stale || len(resp.Items) == 0 {
		t.Errorf("second request: stale = %v, items = %d; want fresh results", resp.Stale, len(resp.Items))
	}
}

func TestCreateLink(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.createSession(t, "movie")

	body := `{"candidate":{"id":438631,"kind":"movie","title":"Dune","date":"2021-10-22"}}`
	rec := ts.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/link", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp linkResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	want := "[Dune (2021)](https://www.imdb.com/title/tt1160419)"
	if resp.Link != want {
		t.Errorf("Link = %q, want %q", resp.Link, want)
	}
}

func TestCreateLink_NullExternalID(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.createSession(t, "movie")

	body := `{"candidate":{"id":999001,"title":"Untitled Project","date":"2030-01-01"}}`
	rec := ts.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/link", body)

	var resp linkResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	want := "[Untitled Project (2030)](https://www.imdb.com/title/null)"
	if resp.Link != want {
		t.Errorf("Link = %q, want %q", resp.Link, want)
	}
}

func TestCreateLink_Unresolvable(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.createSession(t, "movie")

	rec := ts.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/link", `{"candidate":{"id":1,"title":"Ghost"}}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	notices, _ := resp["notices"].([]any)
	if len(notices) != 1 {
		t.Errorf("notices = %v, want one notice", resp["notices"])
	}
}

func TestDeleteSession(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.createSession(t, "movie")

	if rec := ts.do(t, http.MethodDelete, "/api/v1/sessions/"+id, ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if rec := ts.do(t, http.MethodDelete, "/api/v1/sessions/"+id, ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if rec := ts.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/suggestions?query=dune", ""); rec.Code != http.StatusNotFound {
		t.Errorf("suggestions after delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestSettingsToken_AppliesToMetadata(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodPut, "/api/v1/settings/token", `{"token":"new-token"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "new-token") {
		t.Error("response must not echo the token")
	}
}

func TestRecentLogs(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/logs", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/logs/download", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("download status = %d, want %d without a log file", rec.Code, http.StatusNotFound)
	}
}

func TestSessionRegistry_Evicts(t *testing.T) {
	ts := setupTestServer(t)
	registry := NewSessionRegistry(1, time.Minute, ts.newSession)

	first, _ := registry.Create(metadata.KindMovie)
	registry.Create(metadata.KindTVShow)

	if _, ok := registry.Get(first); ok {
		t.Error("oldest session should have been evicted")
	}
	if registry.Len() != 1 {
		t.Errorf("Len = %d, want 1", registry.Len())
	}
}
