package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Claims struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	AccessToken string `json:"access_token"`
	jwt.RegisteredClaims
}

type ctxKey int

const (
	claimsKey ctxKey = iota
	guildKey
)

func claimsFrom(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey).(*Claims)
	return claims
}

func guildFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(guildKey).(int64)
	return id
}

// Auth handlers
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	state := generateRandomString(32)
	url := a.oauthConfig.AuthCodeURL(state)

	writeJSON(w, http.StatusOK, map[string]string{
		"auth_url": url,
		"state":    state,
	})
}

func (a *API) authenticateUser(ctx context.Context, code string) (string, string, string, error) {
	// Exchange code for token
	token, err := a.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return "", "", "", fmt.Errorf("token exchange failed: %w", err)
	}

	user, err := a.getDiscordUser(ctx, token.AccessToken)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to get user: %w", err)
	}

	tokenString, err := a.signToken(user.ID, getUsername(user), token.AccessToken, time.Now())
	if err != nil {
		return "", "", "", fmt.Errorf("failed to create token: %w", err)
	}

	return tokenString, user.ID, getUsername(user), nil
}

func (a *API) signToken(userID, username, accessToken string, now time.Time) (string, error) {
	claims := &Claims{
		UserID:      userID,
		Username:    username,
		AccessToken: accessToken,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.jwtSecret)
}

func (a *API) handleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing code")
		return
	}

	tokenString, userID, username, err := a.authenticateUser(r.Context(), code)
	if err != nil {
		a.logger.Warn("api: login failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":    tokenString,
		"user_id":  userID,
		"username": username,
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "logged out",
	})
}

// Middleware
func (a *API) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			writeError(w, http.StatusUnauthorized, "invalid authorization header")
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return a.jwtSecret, nil
		})

		if err != nil || !token.Valid {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// guildMiddleware parses {guild_id} and rejects users who are not in that guild.
func (a *API) guildMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		guildID, err := strconv.ParseInt(mux.Vars(r)["guild_id"], 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid guild_id")
			return
		}

		claims := claimsFrom(r.Context())
		if claims == nil || !a.guildAccess(r.Context(), claims.AccessToken, guildID) {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}

		ctx := context.WithValue(r.Context(), guildKey, guildID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
