package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/masapos/api/internal/auth"
	"github.com/masapos/api/internal/database"
	"github.com/masapos/api/internal/middleware"
)

// RefreshTokenCookie holds the refresh token for browser clients.
const RefreshTokenCookie = "pos_refresh_token"

// errPinNoMatch means no active PIN holder of the branch matched.
var errPinNoMatch = errors.New("pin does not match")

// AuthStore defines the database methods needed by auth handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type AuthStore interface {
	GetPersonnelByEmail(ctx context.Context, email string) (database.Personnel, error)
	GetPersonnelByID(ctx context.Context, id uuid.UUID) (database.Personnel, error)
	ListPinPersonnelByBranch(ctx context.Context, branchID uuid.UUID) ([]database.Personnel, error)
}

// PinLister lists the PIN holders of a branch.
type PinLister interface {
	ListPinPersonnelByBranch(ctx context.Context, branchID uuid.UUID) ([]database.Personnel, error)
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	store        AuthStore
	jwtSecret    string
	cookieSecure bool
}

// NewAuthHandler creates a new AuthHandler. cookieSecure marks the token
// cookies Secure (HTTPS only).
func NewAuthHandler(store AuthStore, jwtSecret string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{store: store, jwtSecret: jwtSecret, cookieSecure: cookieSecure}
}

// RegisterRoutes registers auth endpoints on the given Chi router.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.Login)
	r.Post("/auth/pin-login", h.PinLogin)
	r.Post("/auth/refresh", h.Refresh)
	r.Post("/auth/logout", h.Logout)
}

// --- Request / Response types ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type pinLoginRequest struct {
	BranchID string `json:"branch_id"`
	Pin      string `json:"pin"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
	User         personnelResponse `json:"user"`
}

// --- Handlers ---

// Login handles email + password authentication.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	p, err := h.store.GetPersonnelByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		internalError(w, "login lookup", err)
		return
	}

	if !p.PasswordHash.Valid || !auth.CheckSecret(p.PasswordHash.String, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.respondWithTokens(w, p)
}

// PinLogin handles branch_id + PIN authentication for floor staff.
func (h *AuthHandler) PinLogin(w http.ResponseWriter, r *http.Request) {
	var req pinLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.BranchID == "" || req.Pin == "" {
		writeError(w, http.StatusBadRequest, "branch_id and pin are required")
		return
	}

	branchID, err := uuid.Parse(req.BranchID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid branch_id")
		return
	}

	p, err := findByPin(r.Context(), h.store, branchID, req.Pin)
	if err != nil {
		if errors.Is(err, errPinNoMatch) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		internalError(w, "pin login lookup", err)
		return
	}

	h.respondWithTokens(w, p)
}

// Refresh exchanges a valid refresh token (body or cookie) for a new token
// pair. Role and branch are re-read so demotions take effect.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RefreshToken == "" {
		if c, err := r.Cookie(RefreshTokenCookie); err == nil {
			req.RefreshToken = c.Value
		}
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	personnelID, err := auth.ValidateRefreshToken(h.jwtSecret, req.RefreshToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	p, err := h.store.GetPersonnelByID(r.Context(), personnelID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusUnauthorized, "user not found")
			return
		}
		internalError(w, "refresh lookup", err)
		return
	}

	h.respondWithTokens(w, p)
}

// Logout clears the token cookies. Bearer clients simply drop their tokens.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	for _, name := range []string{middleware.AccessTokenCookie, RefreshTokenCookie} {
		h.setCookie(w, name, "", -1)
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

func (h *AuthHandler) respondWithTokens(w http.ResponseWriter, p database.Personnel) {
	accessToken, err := auth.GenerateToken(h.jwtSecret, p.ID, p.BranchID, string(p.Role))
	if err != nil {
		internalError(w, "sign access token", err)
		return
	}

	refreshToken, err := auth.GenerateRefreshToken(h.jwtSecret, p.ID)
	if err != nil {
		internalError(w, "sign refresh token", err)
		return
	}

	h.setCookie(w, middleware.AccessTokenCookie, accessToken, int(auth.AccessTokenTTL.Seconds()))
	h.setCookie(w, RefreshTokenCookie, refreshToken, int(auth.RefreshTokenTTL.Seconds()))

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         toPersonnelResponse(p),
	})
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// findByPin matches pin against the bcrypt hashes of the branch's PIN
// holders.
func findByPin(ctx context.Context, store PinLister, branchID uuid.UUID, pin string) (database.Personnel, error) {
	candidates, err := store.ListPinPersonnelByBranch(ctx, branchID)
	if err != nil {
		return database.Personnel{}, err
	}
	for _, p := range candidates {
		if p.PinHash.Valid && auth.CheckSecret(p.PinHash.String, pin) {
			return p, nil
		}
	}
	return database.Personnel{}, errPinNoMatch
}
