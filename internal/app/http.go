package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"store": map[string]any{"status": "ok"},
		}
		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["store"] = map[string]any{"status": "error", "error": err.Error()}
		}
		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/join" {
		var body JoinInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		user, err := s.service.Join(r.Context(), body)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusCreated, user)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/profile" {
		user, err := s.service.Profile(r.Context())
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, user)
		return
	}

	if r.Method == http.MethodPut && r.URL.Path == "/api/profile" {
		var body ProfileUpdateInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		user, err := s.service.UpdateProfile(r.Context(), body)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, user)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/feed" {
		writeJSON(w, http.StatusOK, map[string]any{"posts": s.service.Feed(r.Context())})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/feed/posts" {
		var body PostInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		post, created, err := s.service.CreatePost(r.Context(), body)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		if !created {
			writeJSON(w, http.StatusNoContent, map[string]any{})
			return
		}
		writeJSON(w, http.StatusCreated, post)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/tasks" {
		writeJSON(w, http.StatusOK, map[string]any{"tasks": s.service.Tasks(r.Context())})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/quizzes" {
		writeJSON(w, http.StatusOK, map[string]any{"quizzes": s.service.Quizzes(r.Context())})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/quizzes/generate" {
		var body struct {
			Subject string `json:"subject"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		question, err := s.service.GenerateQuizQuestion(r.Context(), body.Subject)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, question)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/notes" {
		writeJSON(w, http.StatusOK, map[string]any{"notes": s.service.Notes(r.Context())})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/notes" {
		note, err := s.service.CreateNote(r.Context())
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusCreated, note)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/pulse" {
		writeJSON(w, http.StatusOK, map[string]any{"items": s.service.Pulse(r.Context())})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/pulse/refresh" {
		var body struct {
			Category string `json:"category"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		item, err := s.service.RefreshPulse(r.Context(), body.Category)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusCreated, item)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/channels" {
		writeJSON(w, http.StatusOK, map[string]any{"channels": s.service.Channels(r.Context())})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/mentors" {
		writeJSON(w, http.StatusOK, map[string]any{"mentors": s.service.Mentors(r.Context())})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/search" {
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		filterType := strings.TrimSpace(r.URL.Query().Get("type"))
		limit := 20
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit must be an integer", nil)
				return
			}
			limit = parsed
		}
		writeJSON(w, http.StatusOK, s.service.Search(r.Context(), q, filterType, limit))
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/admin/stats" {
		stats, err := s.service.Stats(r.Context())
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, stats)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/admin/users" {
		users, err := s.service.Directory(r.Context(), strings.TrimSpace(r.URL.Query().Get("q")))
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"users": users})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/announcements" {
		writeJSON(w, http.StatusOK, map[string]any{"announcements": s.service.Announcements(r.Context())})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/admin/announcements" {
		var body AnnouncementInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		item, err := s.service.CreateAnnouncement(r.Context(), body)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusCreated, item)
		return
	}

	parts := splitPath(r.URL.Path)

	if len(parts) == 4 && parts[0] == "api" && parts[1] == "feed" && parts[2] == "posts" {
		if r.Method == http.MethodDelete {
			if err := s.service.DeletePost(r.Context(), parts[3]); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	if len(parts) == 5 && parts[0] == "api" && parts[1] == "feed" && parts[2] == "posts" && parts[4] == "like" {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
			return
		}
		post, err := s.service.LikePost(r.Context(), parts[3])
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, post)
		return
	}

	if len(parts) == 5 && parts[0] == "api" && parts[1] == "feed" && parts[2] == "posts" && parts[4] == "comments" {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
			return
		}
		var body struct {
			Content string `json:"content"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		post, err := s.service.CommentPost(r.Context(), parts[3], body.Content)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, post)
		return
	}

	if len(parts) == 4 && parts[0] == "api" && parts[1] == "tasks" && parts[3] == "status" {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
			return
		}
		var body struct {
			Status string `json:"status"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		task, err := s.service.SetTaskStatus(r.Context(), parts[2], body.Status)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, task)
		return
	}

	if len(parts) == 3 && parts[0] == "api" && parts[1] == "notes" {
		if r.Method != http.MethodPut {
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
			return
		}
		var body NoteUpdateInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		note, err := s.service.UpdateNote(r.Context(), parts[2], body)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, note)
		return
	}

	if len(parts) == 4 && parts[0] == "api" && parts[1] == "channels" && parts[3] == "messages" {
		channelID := parts[2]
		if r.Method == http.MethodGet {
			messages, err := s.service.ChannelMessages(r.Context(), channelID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
			return
		}
		if r.Method == http.MethodPost {
			var body MessageInput
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			msg, err := s.service.PostMessage(r.Context(), channelID, body)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusCreated, msg)
			return
		}
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	if len(parts) == 5 && parts[0] == "api" && parts[1] == "admin" && parts[2] == "content" {
		if r.Method != http.MethodDelete {
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
			return
		}
		if err := s.service.DeleteContent(r.Context(), parts[3], parts[4]); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
