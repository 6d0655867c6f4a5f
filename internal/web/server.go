package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Kaushik-93/Engram-sub000/internal/recall"
	"github.com/Kaushik-93/Engram-sub000/internal/schedule"
	"github.com/Kaushik-93/Engram-sub000/internal/storage"
	"github.com/Kaushik-93/Engram-sub000/internal/sync"
)

// Server holds the dependencies for the HTTP API.
type Server struct {
	db       *storage.DB
	recall   *recall.Service
	router   *http.ServeMux
	validate *validator.Validate
	reposDir string
}

// NewServer creates and configures a new server.
func NewServer(db *storage.DB, svc *recall.Service, reposDir string) *Server {
	s := &Server{
		db:       db,
		recall:   svc,
		router:   http.NewServeMux(),
		validate: validator.New(),
		reposDir: reposDir,
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.HandleFunc("/recall", s.handleRecall())
	s.router.HandleFunc("/recall/history", s.handleGetHistory())

	// Source management routes
	s.router.HandleFunc("/sources", s.handleSources())
	s.router.HandleFunc("/sources/", s.handleDeleteSource())
	s.router.HandleFunc("/sync", s.handlePostSync())
}

// handleRecall dispatches the recall endpoint: GET lists due items,
// POST submits a rating.
func (s *Server) handleRecall() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.handleGetDue(w, r)
		case http.MethodPost:
			s.handlePostRating(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

type ownerSummary struct {
	Title string `json:"title"`
}

type dueItemResponse struct {
	ID          string       `json:"id"`
	ConceptText string       `json:"conceptText"`
	ClueText    string       `json:"clueText,omitempty"`
	Owner       ownerSummary `json:"owner"`
}

// handleGetDue lists due items, soonest-due first, capped at one page.
// The optional 'owner' query parameter filters to a single source.
func (s *Server) handleGetDue(w http.ResponseWriter, r *http.Request) {
	var ownerID int64
	if ownerParam := r.URL.Query().Get("owner"); ownerParam != "" {
		id, err := strconv.ParseInt(ownerParam, 10, 64)
		if err != nil {
			http.Error(w, "Invalid owner ID", http.StatusBadRequest)
			return
		}
		ownerID = id
	}

	due, err := s.recall.Due(ownerID)
	if err != nil {
		log.Printf("Error getting due items: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	response := make([]dueItemResponse, 0, len(due))
	for _, d := range due {
		response = append(response, dueItemResponse{
			ID:          d.ID,
			ConceptText: d.Concept,
			ClueText:    d.Clue,
			Owner:       ownerSummary{Title: d.SourceTitle},
		})
	}
	s.respondJSON(w, http.StatusOK, response)
}

type ratingRequest struct {
	ItemRef string `json:"itemRef" validate:"required"`
	// Pointer so a missing score is distinguishable from a zero one.
	Score *float64 `json:"score" validate:"required"`
}

type ratingResponse struct {
	NextDueAt   time.Time `json:"nextDueAt"`
	NewInterval int       `json:"newInterval"`
}

// handlePostRating applies a rating to an item and returns its new schedule.
func (s *Server) handlePostRating(w http.ResponseWriter, r *http.Request) {
	var req ratingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		http.Error(w, "itemRef and score are required", http.StatusBadRequest)
		return
	}

	result, err := s.recall.Rate(req.ItemRef, *req.Score)
	if err != nil {
		switch {
		case errors.Is(err, recall.ErrNotFound):
			http.NotFound(w, r)
		case errors.Is(err, schedule.ErrInvalidScore):
			http.Error(w, "Invalid score", http.StatusBadRequest)
		default:
			log.Printf("Error rating item %s: %v", req.ItemRef, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	s.respondJSON(w, http.StatusOK, ratingResponse{
		NextDueAt:   result.NextDueAt,
		NewInterval: result.IntervalMinutes,
	})
}

type historyEntryResponse struct {
	Score      float64   `json:"score"`
	RecalledAt time.Time `json:"recalledAt"`
}

// handleGetHistory returns an item's review log, oldest entry first.
func (s *Server) handleGetHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		itemRef := r.URL.Query().Get("itemRef")
		if itemRef == "" {
			http.Error(w, "itemRef is required", http.StatusBadRequest)
			return
		}

		entries, err := s.recall.History(itemRef)
		if err != nil {
			if errors.Is(err, recall.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			log.Printf("Error getting history for item %s: %v", itemRef, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		response := make([]historyEntryResponse, 0, len(entries))
		for _, e := range entries {
			response = append(response, historyEntryResponse{Score: e.Score, RecalledAt: e.RecalledAt})
		}
		s.respondJSON(w, http.StatusOK, response)
	}
}

// handleSources handles both GET and POST for source management.
func (s *Server) handleSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.handleGetSources(w, r)
		case http.MethodPost:
			s.handlePostSource(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

type sourceResponse struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Path         string     `json:"path"`
	Type         string     `json:"type"`
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
}

func (s *Server) handleGetSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.db.GetAllSources()
	if err != nil {
		log.Printf("Error getting sources: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	response := make([]sourceResponse, 0, len(sources))
	for _, src := range sources {
		resp := sourceResponse{ID: src.ID, Title: src.Title, Path: src.Path, Type: src.Type}
		if src.LastSyncedAt.Valid {
			t := src.LastSyncedAt.Time
			resp.LastSyncedAt = &t
		}
		response = append(response, resp)
	}
	s.respondJSON(w, http.StatusOK, response)
}

type addSourceRequest struct {
	Title string `json:"title" validate:"required"`
	Path  string `json:"path" validate:"required"`
}

func (s *Server) handlePostSource(w http.ResponseWriter, r *http.Request) {
	var req addSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		http.Error(w, "title and path are required", http.StatusBadRequest)
		return
	}

	sourceType := "local"
	if strings.HasSuffix(req.Path, ".git") || strings.HasPrefix(req.Path, "git@") || strings.HasPrefix(req.Path, "https://") {
		sourceType = "git"
	}

	id, err := s.db.InsertSource(req.Title, req.Path, sourceType)
	if err != nil {
		log.Printf("Error inserting new source: %v", err)
		http.Error(w, "Failed to add source", http.StatusInternalServerError)
		return
	}

	s.respondJSON(w, http.StatusCreated, sourceResponse{ID: id, Title: req.Title, Path: req.Path, Type: sourceType})
}

// handleDeleteSource deletes a source and everything promoted from it.
func (s *Server) handleDeleteSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		idStr := strings.TrimPrefix(r.URL.Path, "/sources/")
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			http.Error(w, "Invalid source ID", http.StatusBadRequest)
			return
		}

		if err := s.db.DeleteSource(id); err != nil {
			log.Printf("Error deleting source %d: %v", id, err)
			http.Error(w, "Failed to delete source", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handlePostSync triggers a reconciliation run in the foreground.
func (s *Server) handlePostSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if err := sync.Run(s.db, s.reposDir); err != nil {
			log.Printf("Error running sync: %v", err)
			http.Error(w, "Sync failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
