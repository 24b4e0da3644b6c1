package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	tokenAccess  = "access"
	tokenRefresh = "refresh"
)

type tokenClaims struct {
	UserID    uint   `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

type tokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func newTokenIssuer(cfg Config) *tokenIssuer {
	return &tokenIssuer{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}
}

func (ti *tokenIssuer) issue(userID uint, tokenType string) (string, error) {
	ttl := ti.accessTTL
	if tokenType == tokenRefresh {
		ttl = ti.refreshTTL
	}
	now := time.Now()
	claims := tokenClaims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
}

// parse validates signature and expiry. An empty want accepts either type.
func (ti *tokenIssuer) parse(tokenString, want string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ti.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errUnauthorized
	}
	if want != "" && claims.TokenType != want {
		return nil, errUnauthorized
	}
	return claims, nil
}

type ctxKey int

const userKey ctxKey = iota

func userFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userKey).(*User)
	return u
}

// requireStaff admits requests bearing a valid access token of a staff or
// superuser account.
func (s *Server) requireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, tokenString, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
			writeError(w, errUnauthorized)
			return
		}
		claims, err := s.tokens.parse(tokenString, tokenAccess)
		if err != nil {
			writeError(w, err)
			return
		}

		var user User
		if err := s.db.WithContext(r.Context()).First(&user, claims.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				err = errUnauthorized
			}
			writeError(w, err)
			return
		}
		if !user.isAdmin() {
			writeError(w, errForbidden)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, &user)))
	})
}

type loginInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

type tokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := decodeInput(r, &in); err != nil {
		writeError(w, err)
		return
	}
	extra := fieldErrors{}
	if in.Username == "" && in.Email == "" {
		extra.add("username", "This field is required.")
	}
	if err := checkInput(&in, extra); err != nil {
		writeError(w, err)
		return
	}

	q := s.db.WithContext(r.Context())
	if in.Username != "" {
		q = q.Where("username = ?", in.Username)
	} else {
		q = q.Where("email = ?", in.Email)
	}
	var user User
	if err := q.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = errUnauthorized
		}
		writeError(w, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		writeError(w, errUnauthorized)
		return
	}

	var pair tokenPair
	var err error
	if pair.Access, err = s.tokens.issue(user.ID, tokenAccess); err != nil {
		writeError(w, err)
		return
	}
	if pair.Refresh, err = s.tokens.issue(user.ID, tokenRefresh); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Refresh string `json:"refresh" validate:"required"`
	}
	if err := decodeInput(r, &in); err != nil {
		writeError(w, err)
		return
	}
	if err := checkInput(&in, nil); err != nil {
		writeError(w, err)
		return
	}
	claims, err := s.tokens.parse(in.Refresh, tokenRefresh)
	if err != nil {
		writeError(w, err)
		return
	}
	var n int64
	if err := s.db.WithContext(r.Context()).Model(&User{}).Where("id = ?", claims.UserID).Count(&n).Error; err != nil {
		writeError(w, err)
		return
	}
	if n == 0 {
		writeError(w, errUnauthorized)
		return
	}
	access, err := s.tokens.issue(claims.UserID, tokenAccess)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Token string `json:"token" validate:"required"`
	}
	if err := decodeInput(r, &in); err != nil {
		writeError(w, err)
		return
	}
	if err := checkInput(&in, nil); err != nil {
		writeError(w, err)
		return
	}
	if _, err := s.tokens.parse(in.Token, ""); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ensureAdmin creates the configured staff account when it does not exist.
func ensureAdmin(db *gorm.DB, cfg Config) error {
	if cfg.AdminPassword == "" {
		var owners int64
		if err := db.Model(&User{}).Where("id = ?", cfg.OwnerUserID).Count(&owners).Error; err != nil {
			return fmt.Errorf("look up owner account: %w", err)
		}
		if owners == 0 {
			log.Println("Admin user does not exist. Set ADMIN_PASSWORD to create it on startup.")
		}
		return nil
	}
	var n int64
	if err := db.Model(&User{}).Where("username = ?", cfg.AdminUsername).Count(&n).Error; err != nil {
		return fmt.Errorf("look up admin account: %w", err)
	}
	if n > 0 {
		return nil
	}
	hash, err := hashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	user := User{
		Username:    cfg.AdminUsername,
		Email:       cfg.AdminEmail,
		Password:    hash,
		IsStaff:     true,
		IsSuperuser: true,
	}
	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("create admin account: %w", err)
	}
	log.Printf("Created admin account %q", user.Username)
	return nil
}
