package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"pricehub/models"
	"pricehub/services"
	"pricehub/utils"
)

// SearchService is the slice of the orchestrator the API depends on.
type SearchService interface {
	Search(ctx context.Context, query, platformsCsv string) ([]models.ProductView, error)
}

// FeedService composes the home feed.
type FeedService interface {
	Compose(ctx context.Context) ([]models.HomeFeedSection, error)
}

// HistoryService lists recently searched queries.
type HistoryService interface {
	Recent() ([]string, error)
}

// Server exposes the JSON HTTP surface consumed by the presentation layer.
type Server struct {
	search  SearchService
	feed    FeedService
	history HistoryService
	metrics http.Handler
	logger  *utils.Logger
}

// New creates a Server. metrics may be nil to disable the /metrics endpoint.
func New(search SearchService, feed FeedService, history HistoryService, metrics http.Handler, logger *utils.Logger) *Server {
	return &Server{
		search:  search,
		feed:    feed,
		history: history,
		metrics: metrics,
		logger:  logger,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", s.handleSearch)
	mux.HandleFunc("/products/home", s.handleHomeFeed)
	mux.HandleFunc("/user/history", s.handleHistory)
	mux.HandleFunc("/health", handleHealth)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}
	return mux
}

// ListenAndServe starts the HTTP server on addr.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("[api] Listening on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	q := r.URL.Query().Get("q")
	platforms := r.URL.Query().Get("platforms")

	results, err := s.search.Search(r.Context(), q, platforms)
	if err != nil {
		if errors.Is(err, services.ErrInvalidRequest) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		s.logger.Error("[api] Search failed for %q: %v", q, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: "a critical error occurred during scraping and saving data",
		})
		return
	}

	if results == nil {
		results = []models.ProductView{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleHomeFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	sections, err := s.feed.Compose(r.Context())
	if err != nil {
		s.logger.Error("[api] Home feed failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: "failed to fetch home page products",
		})
		return
	}

	if sections == nil {
		sections = []models.HomeFeedSection{}
	}
	writeJSON(w, http.StatusOK, sections)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	queries, err := s.history.Recent()
	if err != nil {
		s.logger.Error("[api] History fetch failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: "failed to retrieve search history",
		})
		return
	}

	if queries == nil {
		queries = []string{}
	}
	writeJSON(w, http.StatusOK, queries)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
