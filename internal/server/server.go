package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kayz/scout/internal/docstore"
	"github.com/kayz/scout/internal/logger"
	"github.com/kayz/scout/internal/research"
	"github.com/kayz/scout/internal/theme"
)

// maxUploadBytes bounds document uploads.
const maxUploadBytes = 16 << 20

// Server is the HTTP API over the theme store, the research orchestrator,
// and the document store.
type Server struct {
	themes       *theme.Store
	extractor    *theme.Extractor
	orchestrator *research.Orchestrator
	docs         *docstore.Store
	hub          *Hub
	startedAt    time.Time
}

func NewServer(themes *theme.Store, extractor *theme.Extractor, orchestrator *research.Orchestrator, docs *docstore.Store) *Server {
	s := &Server{
		themes:       themes,
		extractor:    extractor,
		orchestrator: orchestrator,
		docs:         docs,
		hub:          NewHub(),
		startedAt:    time.Now().UTC(),
	}
	// Relay orchestrator progress to websocket subscribers.
	orchestrator.SetNotifier(s.hub.Broadcast)
	return s
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(allowCORS)

	r.Get("/", s.handleIndex)
	r.Get("/status", s.handleStatus)
	r.Get("/ws", s.handleWS)
	r.Post("/upload", s.handleUpload)
	r.Post("/generate", s.handleGenerate)

	r.Route("/themes", func(r chi.Router) {
		r.Get("/", s.handleListThemes)
		r.Post("/create", s.handleCreateTheme)
		r.Post("/extract", s.handleExtractThemes)
		r.Post("/bulk-delete", s.handleBulkDeleteThemes)
		r.Put("/{themeID}", s.handleUpdateTheme)
		r.Delete("/{themeID}", s.handleDeleteTheme)
		r.Post("/{themeID}/activate", s.handleActivateTheme)
		r.Post("/{themeID}/deactivate", s.handleDeactivateTheme)
	})

	r.Route("/research", func(r chi.Router) {
		r.Post("/run", s.handleRunResearch)
		r.Post("/deep-dive", s.handleDeepDive)
		r.Get("/history", s.handleHistory)
		r.Get("/history/{runID}", s.handleGetRun)
	})

	return r
}

// allowCORS mirrors the original backend's allow-everything policy: the
// frontend is served from a different local port.
func allowCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Scout research backend is running",
	})
}

// --- themes ---

func (s *Server) handleListThemes(w http.ResponseWriter, _ *http.Request) {
	themes, err := s.themes.Themes()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, themes)
}

type createThemeRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	Schedule    string   `json:"schedule"`
}

func (s *Server) handleCreateTheme(w http.ResponseWriter, r *http.Request) {
	var req createThemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeDetail(w, http.StatusBadRequest, "name is required")
		return
	}

	t, err := s.themes.CreateTheme(req.Name, req.Description, req.Keywords, req.Schedule)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type extractThemesRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleExtractThemes(w http.ResponseWriter, r *http.Request) {
	var req extractThemesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeDetail(w, http.StatusBadRequest, "text is required")
		return
	}

	themes, err := s.extractor.ExtractThemes(r.Context(), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, themes)
}

func (s *Server) handleUpdateTheme(w http.ResponseWriter, r *http.Request) {
	var upd theme.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := s.themes.UpdateTheme(chi.URLParam(r, "themeID"), upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTheme(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.themes.DeleteTheme(chi.URLParam(r, "themeID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !deleted {
		writeDetail(w, http.StatusNotFound, "Theme not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleBulkDeleteThemes(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	n, err := s.themes.DeleteThemes(req.IDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": n})
}

func (s *Server) handleActivateTheme(w http.ResponseWriter, r *http.Request) {
	t, err := s.themes.SetStatus(chi.URLParam(r, "themeID"), theme.StatusActive)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeactivateTheme(w http.ResponseWriter, r *http.Request) {
	t, err := s.themes.SetStatus(chi.URLParam(r, "themeID"), theme.StatusDraft)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// --- research ---

type runResearchRequest struct {
	ThemeID string `json:"theme_id"`
}

func (s *Server) handleRunResearch(w http.ResponseWriter, r *http.Request) {
	var req runResearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := s.themes.Theme(req.ThemeID)
	if err != nil {
		writeError(w, err)
		return
	}

	run, err := s.orchestrator.RunResearch(r.Context(), *t)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

type deepDiveRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleDeepDive(w http.ResponseWriter, r *http.Request) {
	var req deepDiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		writeDetail(w, http.StatusBadRequest, "url is required")
		return
	}

	summary := s.orchestrator.DeepDive(r.Context(), req.URL)
	writeJSON(w, http.StatusOK, map[string]any{"summary": summary})
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	runs, err := s.orchestrator.History()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.orchestrator.GetRun(chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// --- documents ---

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, err)
		return
	}

	chunks, err := s.docs.Ingest(r.Context(), header.Filename, string(content))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"filename":        header.Filename,
		"status":          "uploaded",
		"chunks_ingested": chunks,
	})
}

type generateRequest struct {
	Query        string   `json:"query"`
	FocusDomains []string `json:"focus_domains"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeDetail(w, http.StatusBadRequest, "query is required")
		return
	}

	res := s.orchestrator.WriteArticle(r.Context(), req.Query, req.FocusDomains)
	writeJSON(w, http.StatusOK, map[string]any{
		"article": res.Article,
		"sources": map[string]any{
			"local": res.LocalSources,
			"web":   res.WebSources,
		},
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("[HTTP] failed to encode response: %v", err)
	}
}

// writeDetail mirrors the original backend's {"detail": ...} error shape.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeError maps domain errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, theme.ErrThemeNotFound):
		writeDetail(w, http.StatusNotFound, "Theme not found")
	case errors.Is(err, research.ErrRunNotFound):
		writeDetail(w, http.StatusNotFound, "Run not found")
	case errors.Is(err, theme.ErrQuotaExceeded):
		writeDetail(w, http.StatusBadRequest, theme.QuotaMessage)
	default:
		writeDetail(w, http.StatusInternalServerError, err.Error())
	}
}
