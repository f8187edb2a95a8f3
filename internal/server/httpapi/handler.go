// Package httpapi exposes the messaging services as a JSON HTTP API.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/messagely/internal/common"
	"github.com/dmitrijs2005/messagely/internal/logging"
	"github.com/dmitrijs2005/messagely/internal/server/models"
	"github.com/dmitrijs2005/messagely/internal/server/services"
	"github.com/go-chi/chi/v5"
)

// UserService is the part of services.UserService used by the handlers.
type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	IssueToken(username string) (string, error)
	Get(ctx context.Context, username string) (*models.UserDetail, error)
	All(ctx context.Context) ([]models.UserSummary, error)
	MessagesFrom(ctx context.Context, username string) ([]models.SentMessage, error)
	MessagesTo(ctx context.Context, username string) ([]models.ReceivedMessage, error)
}

type MessageService interface {
	Send(ctx context.Context, fromUserName, toUserName, body string) (*models.Message, error)
	GetForUser(ctx context.Context, id int64, caller string) (*models.MessageDetail, error)
	MarkReadByRecipient(ctx context.Context, id int64, caller string) (*models.ReadReceipt, error)
}

type PasswordResetService interface {
	Request(ctx context.Context, username string) error
	Confirm(ctx context.Context, username, code, newPassword string) (*models.User, error)
}

// Pinger reports database reachability for /healthz.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	users    UserService
	messages MessageService
	resets   PasswordResetService
	db       Pinger
	logger   logging.Logger
}

func NewHandler(us UserService, ms MessageService, rs PasswordResetService, db Pinger, logger logging.Logger) *Handler {
	return &Handler{users: us, messages: ms, resets: rs, db: db, logger: logger}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(r.Context(), w, h.logger, err)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body", common.ErrorValidation)
	}
	return nil
}

func messageID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, common.ErrorNotFound
	}
	return id, nil
}

type tokenResponse struct {
	Token string `json:"token"`
}

type loginRequest struct {
	UserName string `json:"username"`
	Password string `json:"password"`
}

// Login: {username, password} => {token}
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	token, err := h.users.Login(r.Context(), req.UserName, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

type registerRequest struct {
	UserName  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// Register: {username, password, first_name, last_name, phone} => {token}
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	u, err := h.users.Register(r.Context(), services.RegisterInput{
		UserName:  req.UserName,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	token, err := h.users.IssueToken(u.UserName)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

type messageResponse struct {
	Message string `json:"message"`
}

// RequestPasswordReset: ?username= => {message}
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		h.fail(w, r, fmt.Errorf("%w: username is required", common.ErrorValidation))
		return
	}

	if err := h.resets.Request(r.Context(), username); err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Verification code sent."})
}

type confirmResetRequest struct {
	UserName string `json:"username"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

// ConfirmPasswordReset: {username, code, password} => {message}
func (h *Handler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req confirmResetRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.UserName == "" || req.Code == "" {
		h.fail(w, r, fmt.Errorf("%w: username and code are required", common.ErrorValidation))
		return
	}

	if _, err := h.resets.Confirm(r.Context(), req.UserName, req.Code, req.Password); err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Password changed."})
}

// GetMessage: => {message: {id, body, sent_at, read_at, from_user, to_user}}
func (h *Handler) GetMessage(w http.ResponseWriter, r *http.Request) {
	id, err := messageID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	caller, _ := UserNameFromContext(r.Context())

	m, err := h.messages.GetForUser(r.Context(), id, caller)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": m})
}

type sendMessageRequest struct {
	ToUserName string `json:"to_username"`
	Body       string `json:"body"`
}

// SendMessage: {to_username, body} => {message: {id, from_username, to_username, body, sent_at}}
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	caller, _ := UserNameFromContext(r.Context())

	m, err := h.messages.Send(r.Context(), caller, req.ToUserName, req.Body)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": m})
}

// MarkRead: => {message: {id, read_at}}
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := messageID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	caller, _ := UserNameFromContext(r.Context())

	rr, err := h.messages.MarkReadByRecipient(r.Context(), id, caller)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": rr})
}

// ListUsers: => {users: [{username, first_name, last_name, phone}, ...]}
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.All(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

// GetUser: => {user: {username, first_name, last_name, phone, join_at, last_login_at}}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

func (h *Handler) MessagesTo(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.users.MessagesTo(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func (h *Handler) MessagesFrom(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.users.MessagesFrom(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		h.fail(w, r, fmt.Errorf("%w: database: %v", common.ErrorUpstream, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
