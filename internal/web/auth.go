package web

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Rishi-pixl/studylounge/internal/database"
	"github.com/Rishi-pixl/studylounge/internal/stats"
	"github.com/golang-jwt/jwt"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultSessionExpiration = time.Hour * 24
	tokenCookieKey           = "token"
	minPasswordLength        = 8

	userIdClaim = "user-id"
	expClaim    = "exp"

	uniqueViolationCode = "23505"
)

type contextKey string

const userIdKey contextKey = "user-id"

func UserId(ctx context.Context) (int, bool) {
	userId, ok := ctx.Value(userIdKey).(int)

	return userId, ok
}

func WithUserId(ctx context.Context, userId int) context.Context {
	return context.WithValue(ctx, userIdKey, userId)
}

func hashPassword(passwd string) (string, error) {
	passwdHash, err := bcrypt.GenerateFromPassword([]byte(passwd), bcrypt.DefaultCost)
	return string(passwdHash), err
}

func verifyPassword(passwdHash, passwd string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(passwdHash), []byte(passwd))
	return err == nil
}

func (s *StudyLoungeApp) createSessionToken(userId int, exp time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		userIdClaim: userId,
		expClaim:    time.Now().Add(exp).Unix(),
	})

	return token.SignedString(s.signingKey)
}

func (s *StudyLoungeApp) verifyToken(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return s.signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return token, nil
}

// sessionUserId extracts the authenticated user's id from the session
// cookie. It fails for anonymous requests and expired or tampered tokens.
func (s *StudyLoungeApp) sessionUserId(r *http.Request) (int, error) {
	tokenCookie, err := r.Cookie(tokenCookieKey)
	if err != nil {
		return 0, fmt.Errorf("get cookie: %w", err)
	}

	token, err := s.verifyToken(tokenCookie.Value)
	if err != nil {
		return 0, fmt.Errorf("verify token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("invalid token claims")
	}

	userId, ok := claims[userIdClaim].(float64)
	if !ok {
		return 0, fmt.Errorf("invalid user id claim")
	}

	return int(userId), nil
}

func createSessionCookie(tokenString string, exp time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     tokenCookieKey,
		Value:    tokenString,
		Path:     "/",
		Expires:  time.Now().Add(exp),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

// establishSession issues a signed session cookie for the user.
func (s *StudyLoungeApp) establishSession(w http.ResponseWriter, userId int) error {
	token, err := s.createSessionToken(userId, defaultSessionExpiration)
	if err != nil {
		return err
	}

	http.SetCookie(w, createSessionCookie(token, defaultSessionExpiration))
	return nil
}

func (s *StudyLoungeApp) login(w http.ResponseWriter, r *http.Request) {
	// already-authenticated requesters have nothing to do here
	if _, err := s.sessionUserId(r); err == nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.render(w, http.StatusOK, "login.html.tmpl", &PageData{})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			s.httpError(w, NewBadRequestError())
			return
		}

		email := strings.TrimSpace(r.PostForm.Get("email"))
		password := r.PostForm.Get("password")

		dbUser, err := s.db.GetAccountByEmail(email)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				s.render(w, http.StatusOK, "login.html.tmpl", &PageData{
					Notice: "user does not exist",
					Form:   r.PostForm,
				})
				return
			}
			s.httpError(w, NewInternalServerError(err))
			return
		}

		if !verifyPassword(dbUser.PasswordHash, password) {
			s.render(w, http.StatusOK, "login.html.tmpl", &PageData{
				Notice: "email or password is incorrect",
				Form:   r.PostForm,
			})
			return
		}

		if err := s.establishSession(w, dbUser.Id); err != nil {
			s.httpError(w, NewInternalServerError(err))
			return
		}

		http.Redirect(w, r, "/", http.StatusFound)
	default:
		s.httpError(w, NewMethodNotAllowedError())
	}
}

func (s *StudyLoungeApp) logout(w http.ResponseWriter, r *http.Request) {
	// instruct browser to delete cookie by overwriting it with an expired token
	http.SetCookie(w, createSessionCookie("", -time.Hour))
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *StudyLoungeApp) register(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, http.StatusOK, "register.html.tmpl", &PageData{})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			s.httpError(w, NewBadRequestError())
			return
		}

		username := strings.ToLower(strings.TrimSpace(r.PostForm.Get("username")))
		email := strings.TrimSpace(r.PostForm.Get("email"))
		password := r.PostForm.Get("password")
		confirm := r.PostForm.Get("confirm")

		if notice := validateRegistration(username, email, password, confirm); notice != "" {
			s.render(w, http.StatusOK, "register.html.tmpl", &PageData{
				Notice: notice,
				Form:   r.PostForm,
			})
			return
		}

		pwdHash, err := hashPassword(password)
		if err != nil {
			s.httpError(w, NewInternalServerError(err))
			return
		}

		newUser, err := s.db.CreateAccount(database.CreateAccountParams{
			Username:     username,
			Email:        email,
			PasswordHash: pwdHash,
		})
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode {
				s.render(w, http.StatusOK, "register.html.tmpl", &PageData{
					Notice: "an account with that username or email already exists",
					Form:   r.PostForm,
				})
				return
			}
			s.httpError(w, NewInternalServerError(err))
			return
		}

		if err := s.establishSession(w, newUser.Id); err != nil {
			s.httpError(w, NewInternalServerError(err))
			return
		}

		s.stats.Incr(stats.AccountsRegistered)
		http.Redirect(w, r, "/", http.StatusFound)
	default:
		s.httpError(w, NewMethodNotAllowedError())
	}
}

func validateRegistration(username, email, password, confirm string) string {
	switch {
	case username == "":
		return "username is required"
	case email == "":
		return "email is required"
	case password == "":
		return "password is required"
	case len(password) < minPasswordLength:
		return fmt.Sprintf("password must be at least %d characters", minPasswordLength)
	case password != confirm:
		return "passwords do not match"
	}

	return ""
}
