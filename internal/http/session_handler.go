package http

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/example/marketplace-booking/internal/application"
)

type sessionService interface {
	Load(ctx context.Context) (application.Session, error)
	Save(ctx context.Context, session application.Session) (application.Session, error)
	Clear(ctx context.Context) error
}

// SessionHandler exposes the signed-in user's session blob.
type SessionHandler struct {
	service   sessionService
	responder responder
	logger    *zap.Logger
}

func NewSessionHandler(service sessionService, logger *zap.Logger) *SessionHandler {
	base := defaultLogger(logger)
	return &SessionHandler{service: service, responder: newResponder(base), logger: base}
}

// Get serves GET /session.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	session, err := h.service.Load(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSessionDTO(session))
}

// Put serves PUT /session.
func (h *SessionHandler) Put(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req sessionRequest
	fields, err := decodeBody(r, &req)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	if fields != nil {
		h.responder.writeInvalid(r.Context(), w, fields)
		return
	}

	session, err := h.service.Save(r.Context(), application.Session{
		UserID: req.ID,
		Name:   req.Name,
		Email:  req.Email,
		Token:  req.Token,
	})
	if err != nil {
		handlerLogger(r.Context(), h.logger, "SessionHandler", "Put").
			Warn("session save failed", zap.Error(err), zap.String("error_kind", application.ErrorKind(err)))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSessionDTO(session))
}

// Delete serves DELETE /session. Signing out twice is not an error.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if err := h.service.Clear(r.Context()); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type sessionRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
	Token string `json:"token" validate:"required"`
}

// sessionDTO omits the token so it never leaves the process.
type sessionDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

func toSessionDTO(s application.Session) sessionDTO {
	dto := sessionDTO{ID: s.UserID, Name: s.Name, Email: s.Email}
	if !s.ExpiresAt.IsZero() {
		dto.ExpiresAt = s.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return dto
}
