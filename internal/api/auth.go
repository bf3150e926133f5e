package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"pharmapos/m/domain"
)

type ctxKey string

const (
	ctxUserID ctxKey = "userID"
	ctxRole   ctxKey = "role"
)

type authClaims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (h *Handler) generateToken(userID int64, role string) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(h.opts.TokenTTL)
	claims := authClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(h.opts.Secret))
	return signed, expires, err
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		tokenString := strings.TrimSpace(header[len("Bearer "):])
		token, err := jwt.ParseWithClaims(tokenString, &authClaims{}, func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(h.opts.Secret), nil
		})
		if err != nil || !token.Valid {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		claims, ok := token.Claims.(*authClaims)
		if !ok || claims.UserID <= 0 || !domain.ValidRole(claims.Role) {
			respondError(w, http.StatusUnauthorized, "invalid token claims")
			return
		}
		// Role and active flag come from the users row, not the token.
		user, err := h.svc.Users.Get(r.Context(), claims.UserID)
		if errors.Is(err, domain.ErrNotFound) {
			respondError(w, http.StatusUnauthorized, "account no longer exists")
			return
		}
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if !user.IsActive {
			respondError(w, http.StatusUnauthorized, "account is inactive")
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserID, user.ID)
		ctx = context.WithValue(ctx, ctxRole, user.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// allow rejects requests whose role is not listed.
func (h *Handler) allow(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, _ := r.Context().Value(ctxRole).(string)
			if role == "" {
				respondError(w, http.StatusUnauthorized, "missing role")
				return
			}
			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			respondError(w, http.StatusForbidden, "insufficient permissions")
		})
	}
}

func userID(r *http.Request) int64 {
	id, _ := r.Context().Value(ctxUserID).(int64)
	return id
}

// actor is the authenticated user as recorded on sales and stock movements.
func actor(r *http.Request) *int64 {
	id := userID(r)
	if id == 0 {
		return nil
	}
	return &id
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.svc.Users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) || errors.Is(err, domain.ErrInactiveUser) {
			h.log.Warn("login rejected", zap.String("username", req.Username), zap.Error(err))
		}
		h.fail(w, r, err)
		return
	}

	token, expires, err := h.generateToken(user.ID, user.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}
	respondData(w, http.StatusOK, authResponse{Token: token, ExpiresAt: expires, User: user})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Users.Get(r.Context(), userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondData(w, http.StatusOK, user)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Users.ChangePassword(r.Context(), userID(r), payload.CurrentPassword, payload.NewPassword); err != nil {
		h.fail(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"status": "password updated"})
}
