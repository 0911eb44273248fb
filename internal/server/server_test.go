package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kayz/scout/internal/config"
	"github.com/kayz/scout/internal/docstore"
	"github.com/kayz/scout/internal/research"
	"github.com/kayz/scout/internal/search"
	"github.com/kayz/scout/internal/theme"
)

type stubEngine struct {
	fn func(query string, maxResults int) ([]search.Result, error)
}

func (s *stubEngine) Name() string { return "stub" }

func (s *stubEngine) TextSearch(_ context.Context, query string, maxResults int) ([]search.Result, error) {
	if s.fn == nil {
		return nil, nil
	}
	return s.fn(query, maxResults)
}

type stubGenerator struct {
	response string
}

func (s *stubGenerator) Generate(_ context.Context, _, _ string) string {
	if s.response == "" {
		return "generated"
	}
	return s.response
}

type stubFetcher struct {
	text string
	err  error
}

func (s *stubFetcher) Fetch(_ context.Context, _ string) (string, error) {
	return s.text, s.err
}

type testEnv struct {
	themes *theme.Store
	srv    *httptest.Server
}

func newTestEnv(t *testing.T, engine search.Engine, gen *stubGenerator, fetcher *stubFetcher) *testEnv {
	t.Helper()

	dir := t.TempDir()
	themes, err := theme.NewStore(filepath.Join(dir, "themes.db"))
	if err != nil {
		t.Fatalf("theme store: %v", err)
	}
	t.Cleanup(func() { themes.Close() })

	history, err := research.NewHistoryStore(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatalf("history store: %v", err)
	}
	t.Cleanup(func() { history.Close() })

	docs, err := docstore.New(config.EmbeddingConfig{Enabled: false}, dir)
	if err != nil {
		t.Fatalf("docstore: %v", err)
	}

	if fetcher == nil {
		fetcher = &stubFetcher{text: "page"}
	}
	orchestrator := research.NewOrchestrator(engine, gen, fetcher, history, 0)
	extractor := theme.NewExtractor(gen, themes)

	s := NewServer(themes, extractor, orchestrator, docs)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return &testEnv{themes: themes, srv: srv}
}

func (e *testEnv) postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(e.srv.URL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	return resp
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestCreateAndListThemes(t *testing.T) {
	env := newTestEnv(t, &stubEngine{}, &stubGenerator{}, nil)

	resp := env.postJSON(t, "/themes/create", map[string]any{
		"name":        "New Theme",
		"description": "desc",
		"keywords":    []string{"k1", "k2"},
		"schedule":    "weekly",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create status: %d", resp.StatusCode)
	}
	created := decodeBody[theme.Theme](t, resp)
	if created.Name != "New Theme" || created.Status != "draft" {
		t.Fatalf("unexpected theme: %#v", created)
	}

	resp, err := http.Get(env.srv.URL + "/themes/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	themes := decodeBody[[]theme.Theme](t, resp)
	if len(themes) != 1 || themes[0].ID != created.ID {
		t.Fatalf("unexpected list: %#v", themes)
	}
}

func TestActivateThemeQuota(t *testing.T) {
	env := newTestEnv(t, &stubEngine{}, &stubGenerator{}, nil)

	var ids []string
	for i := 0; i < 4; i++ {
		th, err := env.themes.CreateTheme(fmt.Sprintf("t%d", i), "", nil, "")
		if err != nil {
			t.Fatalf("seed theme: %v", err)
		}
		ids = append(ids, th.ID)
	}
	for _, id := range ids[:3] {
		resp := env.postJSON(t, "/themes/"+id+"/activate", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("activate status: %d", resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp := env.postJSON(t, "/themes/"+ids[3]+"/activate", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body := decodeBody[map[string]string](t, resp)
	if body["detail"] != "Active theme limit reached (3). Deactivate another theme first." {
		t.Fatalf("unexpected detail: %q", body["detail"])
	}

	// Deactivate frees a slot.
	resp = env.postJSON(t, "/themes/"+ids[0]+"/deactivate", nil)
	resp.Body.Close()
	resp = env.postJSON(t, "/themes/"+ids[3]+"/activate", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("activate after free slot: %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUpdateThemeNotFound(t *testing.T) {
	env := newTestEnv(t, &stubEngine{}, &stubGenerator{}, nil)

	resp := env.do(t, http.MethodPut, "/themes/missing", map[string]any{"name": "x"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	body := decodeBody[map[string]string](t, resp)
	if body["detail"] != "Theme not found" {
		t.Fatalf("unexpected detail: %q", body["detail"])
	}
}

func TestUpdateTheme(t *testing.T) {
	env := newTestEnv(t, &stubEngine{}, &stubGenerator{}, nil)
	th, err := env.themes.CreateTheme("Robotics", "old", nil, "")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	resp := env.do(t, http.MethodPut, "/themes/"+th.ID, map[string]any{"description": "updated"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status: %d", resp.StatusCode)
	}
	got := decodeBody[theme.Theme](t, resp)
	if got.Description != "updated" || got.Name != "Robotics" {
		t.Fatalf("unexpected theme: %#v", got)
	}
}

func TestDeleteTheme(t *testing.T) {
	env := newTestEnv(t, &stubEngine{}, &stubGenerator{}, nil)
	th, err := env.themes.CreateTheme("Doomed", "", nil, "")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	resp := env.do(t, http.MethodDelete, "/themes/"+th.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = env.do(t, http.MethodDelete, "/themes/"+th.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for missing theme, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestBulkDeleteThemes(t *testing.T) {
	env := newTestEnv(t, &stubEngine{}, &stubGenerator{}, nil)
	a, _ := env.themes.CreateTheme("a", "", nil, "")
	b, _ := env.themes.CreateTheme("b", "", nil, "")

	resp := env.postJSON(t, "/themes/bulk-delete", map[string]any{"ids": []string{a.ID, b.ID, "missing"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("bulk delete status: %d", resp.StatusCode)
	}
	body := decodeBody[map[string]int](t, resp)
	if body["deleted"] != 2 {
		t.Fatalf("expected 2 deleted, got %d", body["deleted"])
	}
}

func TestRunResearchUnknownTheme(t *testing.T) {
	env := newTestEnv(t, &stubEngine{}, &stubGenerator{}, nil)

	resp := env.postJSON(t, "/research/run", map[string]any{"theme_id": "nope"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	body := decodeBody[map[string]string](t, resp)
	if body["detail"] != "Theme not found" {
		t.Fatalf("unexpected detail: %q", body["detail"])
	}
}

func TestRunResearchSuccess(t *testing.T) {
	engine := &stubEngine{fn: func(string, int) ([]search.Result, error) {
		return []search.Result{{Title: "hit", Snippet: "s", Link: "https://x"}}, nil
	}}
	env := newTestEnv(t, engine, &stubGenerator{response: "summary"}, nil)
	th, err := env.themes.CreateTheme("AI Agents", "", []string{"ai"}, "")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	resp := env.postJSON(t, "/research/run", map[string]any{"theme_id": th.ID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("run status: %d", resp.StatusCode)
	}
	run := decodeBody[research.Run](t, resp)
	if run.ThemeID != th.ID || len(run.Buckets) != 5 {
		t.Fatalf("unexpected run: %#v", run)
	}

	// The run must now be in history.
	hresp, err := http.Get(env.srv.URL + "/research/history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	runs := decodeBody[[]research.Run](t, hresp)
	if len(runs) != 1 || runs[0].ID != run.ID {
		t.Fatalf("run missing from history: %#v", runs)
	}

	// And retrievable by id.
	gresp, err := http.Get(env.srv.URL + "/research/history/" + run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	got := decodeBody[research.Run](t, gresp)
	if got.ID != run.ID {
		t.Fatalf("wrong run: %#v", got)
	}

	missing, err := http.Get(env.srv.URL + "/research/history/unknown")
	if err != nil {
		t.Fatalf("get missing run: %v", err)
	}
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown run, got %d", missing.StatusCode)
	}
	missing.Body.Close()
}

func TestDeepDive(t *testing.T) {
	env := newTestEnv(t, &stubEngine{}, &stubGenerator{response: "deep summary"}, &stubFetcher{text: "content"})

	resp := env.postJSON(t, "/research/deep-dive", map[string]any{"url": "https://example.com"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("deep dive status: %d", resp.StatusCode)
	}
	body := decodeBody[map[string]string](t, resp)
	if body["summary"] != "deep summary" {
		t.Fatalf("unexpected summary: %q", body["summary"])
	}
}

func TestDeepDiveFetchErrorStillOK(t *testing.T) {
	env := newTestEnv(t, &stubEngine{}, &stubGenerator{}, &stubFetcher{err: fmt.Errorf("boom")})

	resp := env.postJSON(t, "/research/deep-dive", map[string]any{"url": "raise"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("deep dive status: %d", resp.StatusCode)
	}
	body := decodeBody[map[string]string](t, resp)
	if !strings.HasPrefix(body["summary"], "Error performing deep dive:") {
		t.Fatalf("unexpected summary: %q", body["summary"])
	}
}

func TestExtractThemesEndpoint(t *testing.T) {
	gen := &stubGenerator{response: `[{"name": "Edge Inference Costs", "description": "d", "keywords": ["edge", "inference"]}]`}
	env := newTestEnv(t, &stubEngine{}, gen, nil)

	resp := env.postJSON(t, "/themes/extract", map[string]any{"text": "a long document"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("extract status: %d", resp.StatusCode)
	}
	themes := decodeBody[[]theme.Theme](t, resp)
	if len(themes) != 1 || themes[0].Name != "Edge Inference Costs" {
		t.Fatalf("unexpected extraction: %#v", themes)
	}
}

func TestGenerateEndpoint(t *testing.T) {
	env := newTestEnv(t, &stubEngine{}, &stubGenerator{response: "the article"}, nil)

	resp := env.postJSON(t, "/generate", map[string]any{"query": "ai agents", "focus_domains": []string{"arxiv.org"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate status: %d", resp.StatusCode)
	}
	body := decodeBody[map[string]any](t, resp)
	if body["article"] != "the article" {
		t.Fatalf("unexpected article: %v", body["article"])
	}
	if _, ok := body["sources"]; !ok {
		t.Fatalf("sources missing: %v", body)
	}
}

func TestUploadWithDisabledDocstore(t *testing.T) {
	env := newTestEnv(t, &stubEngine{}, &stubGenerator{}, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "report.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write([]byte("document body"))
	mw.Close()

	resp, err := http.Post(env.srv.URL+"/upload", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status: %d", resp.StatusCode)
	}
	body := decodeBody[map[string]any](t, resp)
	if body["status"] != "uploaded" || body["filename"] != "report.txt" {
		t.Fatalf("unexpected body: %v", body)
	}
	// Embeddings disabled: ingestion is a no-op.
	if body["chunks_ingested"].(float64) != 0 {
		t.Fatalf("expected 0 chunks, got %v", body["chunks_ingested"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	env := newTestEnv(t, &stubEngine{}, &stubGenerator{}, nil)

	resp, err := http.Get(env.srv.URL + "/status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	body := decodeBody[map[string]any](t, resp)
	if body["ok"] != true {
		t.Fatalf("unexpected status body: %v", body)
	}
}
