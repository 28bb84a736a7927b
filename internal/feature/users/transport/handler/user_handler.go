// Package handler provides the transport handlers for the users feature.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"users_backend/internal/feature/users/domain/entity"
	"users_backend/internal/feature/users/transport/http/dto"
	"users_backend/internal/feature/users/usecase"
)

// Client-visible error messages.
const (
	MsgMethodNotAllowed = "Method not allowed"
	MsgBodyRequired     = "Request body is required"
	MsgInvalidJSON      = "Invalid JSON in request body"
	MsgEmailRequired    = "Email is required"
	MsgInvalidEmail     = "Invalid email format"
	MsgEmailConflict    = "User with this email already exists"
	MsgDatabaseError    = "Database error"
	MsgInternalError    = "Internal server error"
)

// maxBodyBytes caps the request body read by the gin adapter.
const maxBodyBytes = 1 << 20

// errUnexpectedPayload marks JSON that parses but cannot carry an email field,
// such as a top-level array or a numeric email.
var errUnexpectedPayload = errors.New("unexpected payload shape")

// UserUsecase defines the use case for creating users.
// Following Go convention: interfaces are defined by the consumer (handler), not the provider (usecase).
type UserUsecase interface {
	// CreateUser validates, de-duplicates and persists a user with the given email.
	CreateUser(ctx context.Context, email string) (*entity.User, error)
}

// CORSHeaders returns the headers attached to every response.
func CORSHeaders() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Headers": "*",
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Methods": "OPTIONS,POST",
	}
}

// UserHandler handles create-user requests independently of the transport that carries them.
type UserHandler struct {
	users UserUsecase
}

// NewUserHandler creates a new instance of UserHandler.
func NewUserHandler(users UserUsecase) *UserHandler {
	return &UserHandler{users: users}
}

// Handle processes one create-user request.
//
// Checks run in order and the first failure wins: method presence, method, body presence, JSON syntax,
// email presence, email format, uniqueness, persistence. A panic anywhere below this
// point is converted into a generic 500 response.
func (h *UserHandler) Handle(ctx context.Context, req dto.Request) (resp dto.Response) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("create user panicked")
			resp = errorResponse(http.StatusInternalServerError, MsgInternalError)
		}
	}()

	if req.Method == "" {
		log.Error().Msg("create user failed: request carries no method")
		return errorResponse(http.StatusInternalServerError, MsgInternalError)
	}
	if req.Method != http.MethodPost {
		log.Warn().Str("method", req.Method).Msg("create user rejected: method not allowed")
		return errorResponse(http.StatusMethodNotAllowed, MsgMethodNotAllowed)
	}
	return h.create(ctx, req)
}

func (h *UserHandler) create(ctx context.Context, req dto.Request) dto.Response {
	if req.Body == nil {
		log.Warn().Msg("create user rejected: missing body")
		return errorResponse(http.StatusBadRequest, MsgBodyRequired)
	}

	payload, err := decodePayload(*req.Body)
	if err != nil {
		log.Warn().Err(err).Msg("create user rejected: invalid json")
		return errorResponse(http.StatusBadRequest, MsgInvalidJSON)
	}

	email, err := extractEmail(payload)
	if err != nil {
		if errors.Is(err, usecase.ErrEmailRequired) {
			log.Warn().Msg("create user rejected: email missing")
			return errorResponse(http.StatusBadRequest, MsgEmailRequired)
		}
		log.Error().Err(err).Msg("create user failed: unreadable payload")
		return errorResponse(http.StatusInternalServerError, MsgInternalError)
	}

	user, err := h.users.CreateUser(ctx, email)
	switch {
	case err == nil:
	case errors.Is(err, usecase.ErrEmailRequired):
		log.Warn().Msg("create user rejected: email missing")
		return errorResponse(http.StatusBadRequest, MsgEmailRequired)
	case errors.Is(err, usecase.ErrInvalidEmail):
		log.Warn().Str("email", email).Msg("create user rejected: invalid email")
		return errorResponse(http.StatusBadRequest, MsgInvalidEmail)
	case errors.Is(err, usecase.ErrEmailAlreadyExists):
		log.Warn().Str("email", email).Msg("create user rejected: duplicate email")
		return errorResponse(http.StatusConflict, MsgEmailConflict)
	case errors.Is(err, usecase.ErrStore):
		log.Error().Err(err).Str("email", email).Msg("create user failed: store error")
		return errorResponse(http.StatusInternalServerError, MsgDatabaseError)
	default:
		log.Error().Err(err).Str("email", email).Msg("create user failed")
		return errorResponse(http.StatusInternalServerError, MsgInternalError)
	}

	log.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("user created")
	return jsonResponse(http.StatusCreated, dto.UserResponse{ID: user.ID, Email: user.Email})
}

// decodePayload parses exactly one JSON document. Numbers are kept as json.Number so
// that values outside the float64 range are still valid JSON.
func decodePayload(body string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after JSON document")
	}
	return payload, nil
}

// extractEmail reads the email field from a decoded JSON document.
// Absent, null, blank and other empty values count as missing.
func extractEmail(payload any) (string, error) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return "", errUnexpectedPayload
	}
	switch v := obj["email"].(type) {
	case string:
		if usecase.NormalizeEmail(v) == "" {
			return "", usecase.ErrEmailRequired
		}
		return v, nil
	case nil:
		return "", usecase.ErrEmailRequired
	case bool:
		if !v {
			return "", usecase.ErrEmailRequired
		}
	case json.Number:
		// Out-of-range values parse to ±Inf, which is non-empty.
		if f, _ := v.Float64(); f == 0 {
			return "", usecase.ErrEmailRequired
		}
	case []any:
		if len(v) == 0 {
			return "", usecase.ErrEmailRequired
		}
	case map[string]any:
		if len(v) == 0 {
			return "", usecase.ErrEmailRequired
		}
	}
	return "", errUnexpectedPayload
}

// CreateUser adapts a gin request to Handle. Every method on the route reaches Handle so
// that non-POST requests receive the same 405 body and CORS headers.
// An empty HTTP body is treated as an absent body.
func (h *UserHandler) CreateUser(c *gin.Context) {
	req := dto.Request{Method: c.Request.Method}

	if c.Request.Body != nil {
		raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
		if err != nil {
			log.Error().Err(err).Str("remote_addr", c.ClientIP()).Msg("failed to read request body")
			writeResponse(c, errorResponse(http.StatusInternalServerError, MsgInternalError))
			return
		}
		if len(raw) > 0 {
			body := string(raw)
			req.Body = &body
		}
	}

	writeResponse(c, h.Handle(c.Request.Context(), req))
}

func writeResponse(c *gin.Context, resp dto.Response) {
	for k, v := range resp.Headers {
		c.Header(k, v)
	}
	c.Data(resp.StatusCode, "application/json", []byte(resp.Body))
}

func errorResponse(status int, message string) dto.Response {
	return jsonResponse(status, dto.ErrorResponse{Error: message})
}

func jsonResponse(status int, body any) dto.Response {
	headers := CORSHeaders()
	headers["Content-Type"] = "application/json"

	b, err := json.Marshal(body)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode response")
		return dto.Response{
			StatusCode: http.StatusInternalServerError,
			Headers:    headers,
			Body:       `{"error":"` + MsgInternalError + `"}`,
		}
	}
	return dto.Response{StatusCode: status, Headers: headers, Body: string(b)}
}
