package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"chargemap/backend/services/auth-service/internal/http/middleware"
	"chargemap/backend/services/auth-service/internal/models"
	"chargemap/backend/services/auth-service/internal/service"
)

// AuthHandlers serves /api/auth.
type AuthHandlers struct {
	svc    *service.AuthService
	logger *zap.Logger
}

// NewAuthHandlers builds handler set.
func NewAuthHandlers(svc *service.AuthService, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{svc: svc, logger: logger}
}

type registerRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Password2   string `json:"password2"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	VehicleType string `json:"vehicle_type"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message   string       `json:"message"`
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	User      *models.User `json:"user"`
}

type profileRequest struct {
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	VehicleType string `json:"vehicle_type"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := h.svc.Register(r.Context(), service.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		Password2:   req.Password2,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		VehicleType: req.VehicleType,
	})
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to create user")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login handles POST /api/auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Please provide username and password")
		return
	}

	token, user, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to login")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Message:   "Login successful",
		Token:     token,
		TokenType: "Bearer",
		User:      user,
	})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if err := h.svc.Logout(r.Context(), claims); err != nil {
		writeServiceError(w, h.logger, err, "failed to logout")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// Profile handles GET /api/auth/profile.
func (h *AuthHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	user, err := h.svc.Profile(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to fetch profile")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile handles PUT /api/auth/profile.
func (h *AuthHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	claims := middleware.ClaimsFromContext(r.Context())
	user, err := h.svc.UpdateProfile(r.Context(), claims.UserID, models.Profile{
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		VehicleType: req.VehicleType,
	})
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
