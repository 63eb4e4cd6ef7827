package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/knowbase/kb/internal/ingest"
	"github.com/knowbase/kb/internal/retriever"
	"github.com/knowbase/kb/internal/store"
)

type addDocumentRequest struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	DocType         string   `json:"doc_type"`
	Scope           string   `json:"scope"`
	IsAdminManaged  bool     `json:"is_admin_managed"`
	SourceType      string   `json:"source_type"`
	Content         string   `json:"content"`
	SourceURL       string   `json:"source_url"`
	TargetFunctions []string `json:"target_functions"`
	TargetPlatforms []string `json:"target_platforms"`
	Tags            []string `json:"tags"`
	Priority        int      `json:"priority"`
	Owner           string   `json:"owner"`
}

func (s *Server) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	var req addDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := s.gateway.AddDocument(r.Context(), ingest.AddDocumentRequest{
		Title:           req.Title,
		Description:     req.Description,
		DocType:         store.DocType(req.DocType),
		Scope:           store.Scope(req.Scope),
		IsAdminManaged:  req.IsAdminManaged,
		SourceType:      store.SourceType(req.SourceType),
		Content:         req.Content,
		SourceURL:       req.SourceURL,
		TargetFunctions: req.TargetFunctions,
		TargetPlatforms: req.TargetPlatforms,
		Tags:            req.Tags,
		Priority:        req.Priority,
		Owner:           req.Owner,
	})
	if err != nil {
		s.writeIngestError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	filter := store.DocumentFilter{
		Status:     store.Status(r.URL.Query().Get("status")),
		DocType:    store.DocType(r.URL.Query().Get("doc_type")),
		UploadedBy: r.URL.Query().Get("owner"),
	}
	docs, err := s.store.ListDocuments(r.Context(), filter)
	if err != nil {
		s.writeIngestError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"documents": docs, "count": len(docs)})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.GetDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeIngestError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	doc, err := s.gateway.Process(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeIngestError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleReprocess(w http.ResponseWriter, r *http.Request) {
	doc, err := s.gateway.Reprocess(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeIngestError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

type setContentRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleSetContent(w http.ResponseWriter, r *http.Request) {
	var req setContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := s.gateway.SetContent(r.Context(), chi.URLParam(r, "id"), req.Content)
	if err != nil {
		s.writeIngestError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.gateway.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeIngestError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req retriever.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	results, err := s.retriever.Search(r.Context(), req)
	if err != nil {
		s.log.Error("search failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if results == nil {
		results = []retriever.SearchResult{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results, "count": len(results)})
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	var req retriever.ContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	pc, err := s.retriever.ContextForPrompt(r.Context(), req)
	if err != nil {
		s.log.Error("context assembly failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "context assembly failed")
		return
	}
	writeJSON(w, http.StatusOK, pc)
}

// writeIngestError maps gateway and store errors onto HTTP status codes.
func (s *Server) writeIngestError(w http.ResponseWriter, err error) {
	var dup *ingest.DuplicateDocumentError
	switch {
	case errors.As(err, &dup):
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":       "document already exists",
			"existing_id": dup.ExistingID,
		})
	case errors.Is(err, ingest.ErrProcessingInProgress):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ingest.ErrEmptyContent):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "document not found")
	default:
		s.log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
