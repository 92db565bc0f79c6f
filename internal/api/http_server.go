package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"schedula/internal/config"
	"schedula/internal/database"
	"schedula/internal/export"
	"schedula/internal/intent"
	"schedula/internal/metrics"
	"schedula/internal/models"
	"schedula/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	dateLayout      = "2006-01-02"
	maxBodyBytes    = 1 << 20
)

// ChatAPI is what the /api/chat routes need from the chat service.
type ChatAPI interface {
	Reply(ctx context.Context, clientKey, message string) (*models.ChatReply, error)
	ListConversations(ctx context.Context, page, limit int) (*models.ConversationPage, error)
	SaveConversation(ctx context.Context, message, response string) (*models.ChatConversation, error)
	DeleteConversation(ctx context.Context, id string) error
}

type BookingAPI interface {
	ListBookings(ctx context.Context) ([]*models.Booking, error)
	ExportBookings(ctx context.Context, w io.Writer, from, to time.Time) error
	Location() *time.Location
}

// Pinger backs /readyz.
type Pinger interface {
	Ready(ctx context.Context) error
}

// HTTPServer exposes the chat assistant and booking reads over JSON.
type HTTPServer struct {
	cfg       config.APIConfig
	chat      ChatAPI
	bookings  BookingAPI
	db        Pinger
	validator *RequestValidator
	limiter   *rateLimiter
	server    *http.Server
	handler   http.Handler
	logger    *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, chat ChatAPI, bookings BookingAPI, db Pinger, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	srv := &HTTPServer{
		cfg:       cfg,
		chat:      chat,
		bookings:  bookings,
		db:        db,
		validator: NewRequestValidator(),
		limiter:   newRateLimiter(cfg.RateLimit),
		logger:    logger,
	}

	mux := http.NewServeMux()
	srv.handle(mux, "/api/chat", srv.handleChat)
	srv.handle(mux, "/api/bookings", srv.handleBookings)
	srv.handle(mux, "/api/bookings/export", srv.handleExport)
	srv.handle(mux, "/healthz", srv.handleHealth)
	srv.handle(mux, "/readyz", srv.handleReady)

	srv.handler = srv.requestIDMiddleware(srv.loggingMiddleware(srv.rateLimitMiddleware(mux)))
	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

// Handler returns the fully wrapped handler, mostly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	endpoint := strings.Trim(strings.ReplaceAll(pattern, "/", "_"), "_")
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		metrics.IncHTTP(endpoint)
		h(w, r)
	})
}

func (s *HTTPServer) handleChat(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listConversations(w, r)
	case http.MethodPost:
		s.postChat(w, r)
	case http.MethodDelete:
		s.deleteConversation(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) listConversations(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", models.DefaultPage)
	limit := queryInt(r, "limit", models.DefaultPageLimit)

	result, err := s.chat.ListConversations(r.Context(), page, limit)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("list conversations")
		writeError(w, http.StatusInternalServerError, "Failed to fetch chat conversations")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *HTTPServer) postChat(w http.ResponseWriter, r *http.Request) {
	log := zerolog.Ctx(r.Context())

	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("decode chat request")
		if details, ok := decodeErrors(err); ok {
			writeValidationFailed(w, details)
			return
		}
		writeApology(w)
		return
	}

	if err := s.validator.Struct(req); err != nil {
		var details ValidationErrors
		if errors.As(err, &details) {
			writeValidationFailed(w, details)
			return
		}
		log.Error().Err(err).Msg("validate chat request")
		writeApology(w)
		return
	}

	if req.storagePath() {
		conv, err := s.chat.SaveConversation(r.Context(), req.Message, req.Response)
		if err != nil {
			log.Error().Err(err).Msg("save conversation")
			writeApology(w)
			return
		}
		writeJSON(w, http.StatusCreated, conv)
		return
	}

	reply, err := s.chat.Reply(r.Context(), clientKey(r), req.Message)
	if err != nil {
		log.Error().Err(err).Msg("chat reply")
		writeApology(w)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *HTTPServer) deleteConversation(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "Conversation ID is required")
		return
	}

	if err := s.chat.DeleteConversation(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrConversationNotFound) {
			writeError(w, http.StatusNotFound, "Conversation not found")
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Str("id", id).Msg("delete conversation")
		writeError(w, http.StatusInternalServerError, "Failed to delete chat conversation")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Conversation deleted successfully"})
}

func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	bookings, err := s.bookings.ListBookings(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("list bookings")
		writeError(w, http.StatusInternalServerError, "Failed to fetch bookings")
		return
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	loc := s.bookings.Location()
	from, err := parseDate(r.URL.Query().Get("from"), loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "from: "+err.Error())
		return
	}
	to, err := parseDate(r.URL.Query().Get("to"), loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "to: "+err.Error())
		return
	}

	// Собираем файл целиком, чтобы ошибка не оборвала ответ на середине.
	var buf bytes.Buffer
	if err := s.bookings.ExportBookings(r.Context(), &buf, from, to); err != nil {
		if errors.Is(err, service.ErrInvalidExportRange) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("export bookings")
		writeError(w, http.StatusInternalServerError, "Failed to export bookings")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.FileName(from, to)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.db == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	if err := s.db.Ready(ctx); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("readiness check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *HTTPServer) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		l := s.logger.With().Str("request_id", reqID).Logger()
		next.ServeHTTP(w, r.WithContext(l.WithContext(r.Context())))
	})
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		zerolog.Ctx(r.Context()).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func (s *HTTPServer) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(clientKey(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey identifies the caller for rate limiting and pending selections.
func clientKey(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-Client-ID")); id != "" {
		return id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

// queryInt returns def for a missing, malformed or non-positive value.
func queryInt(r *http.Request, key string, def int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func parseDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("date is required")
	}
	t, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return time.Time{}, errors.New("invalid date format; expected YYYY-MM-DD")
	}
	return t, nil
}

func writeApology(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, models.ChatReply{
		Response:    intent.TextApology,
		Suggestions: intent.FallbackSuggestions(),
	})
}

func writeValidationFailed(w http.ResponseWriter, details ValidationErrors) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":   "Validation failed",
		"details": details,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
