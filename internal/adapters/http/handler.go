package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/PabloGalante/persona-chat/internal/app/persona"
	"github.com/PabloGalante/persona-chat/internal/domain"
)

type Server struct {
	svc *persona.Service
}

func NewServer(svc *persona.Service) http.Handler {
	s := &Server{svc: svc}
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealthz)

	// /characters → list catalog (GET)
	mux.HandleFunc("/characters", s.handleCharacters)

	// /characters/{id}/messages →  GET: history, POST: send message
	mux.HandleFunc("/characters/", s.handleCharacterWithID)

	return chainMiddlewares(mux, withLogging, withCORS)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type characterResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Image        string `json:"image"`
	BasePrompt   string `json:"basePrompt"`
	GreetingText string `json:"greetingText"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

// sendMessageResponse carries only the assistant's reply text; error
// responses reuse the same "message" key for the human-readable reason.
type sendMessageResponse struct {
	Message string `json:"message"`
}

// ─────────────────────────────────────────────
// Basic routing
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// /characters
func (s *Server) handleCharacters(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListCharacters(w, r)
	default:
		methodNotAllowed(w)
	}
}

// /characters/{id}/messages
func (s *Server) handleCharacterWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/characters/")
	if path == "" {
		http.NotFound(w, r)
		return
	}

	parts := strings.Split(path, "/")
	id := parts[0]

	if id == "" || len(parts) != 2 || parts[1] != "messages" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetHistory(w, r, domain.CharacterID(id))
	case http.MethodPost:
		s.handleSendMessage(w, r, domain.CharacterID(id))
	default:
		methodNotAllowed(w)
	}
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleListCharacters(w http.ResponseWriter, r *http.Request) {
	chars, err := s.svc.ListCharacters(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}

	out := make([]characterResponse, 0, len(chars))
	for _, ch := range chars {
		out = append(out, toCharacterResponse(ch))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request, id domain.CharacterID) {
	msgs, err := s.svc.GetHistory(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrCharacterNotFound) {
			notFound(w, "character not found")
			return
		}
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMessagesResponse(msgs))
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, id domain.CharacterID) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	if strings.TrimSpace(req.Content) == "" {
		badRequest(w, "content is required")
		return
	}

	out, err := s.svc.SendMessage(r.Context(), persona.SendMessageInput{
		CharacterID: id,
		Content:     req.Content,
	})
	if err != nil {
		if errors.Is(err, domain.ErrCharacterNotFound) {
			notFound(w, "character not found")
			return
		}
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sendMessageResponse{
		Message: out.AssistantMessage.Content,
	})
}

// ─────────────────────────────────────────────
// Response helpers
// ─────────────────────────────────────────────

func toCharacterResponse(ch *domain.Character) characterResponse {
	return characterResponse{
		ID:           string(ch.ID),
		Name:         ch.DisplayName,
		Description:  ch.Description,
		Image:        ch.AvatarRef,
		BasePrompt:   ch.SystemPrompt,
		GreetingText: ch.Greeting,
	}
}

func toMessageResponse(m *domain.Message) messageResponse {
	return messageResponse{
		ID:        string(m.ID),
		Content:   m.Content,
		Role:      string(m.Role),
		CreatedAt: m.CreatedAt,
	}
}

func toMessagesResponse(msgs []*domain.Message) []messageResponse {
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	return out
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"message": msg,
	})
}

func notFound(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"message": msg,
	})
}

func internalError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"message": "internal server error",
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"message": "method not allowed",
	})
}
