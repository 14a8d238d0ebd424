package web

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Rishi-pixl/studylounge/internal/database"
	"github.com/Rishi-pixl/studylounge/internal/stats"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

// findCookie returns the named cookie from the recorded response, or nil.
func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func Test_hashPassword(t *testing.T) {
	hash, err := hashPassword("correct horse battery staple")
	assert.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)
	assert.True(t, verifyPassword(hash, "correct horse battery staple"))
	assert.False(t, verifyPassword(hash, "wrong password"))
}

func TestSessionTokenRoundTrip(t *testing.T) {
	ta := newTestApp(t)

	token, err := ta.app.createSessionToken(42, time.Hour)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: tokenCookieKey, Value: token})

	userId, err := ta.app.sessionUserId(req)
	assert.NoError(t, err)
	assert.Equal(t, 42, userId)
}

func TestSessionUserIdErrors(t *testing.T) {
	ta := newTestApp(t)

	t.Run("no cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		_, err := ta.app.sessionUserId(req)
		assert.Error(t, err)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: tokenCookieKey, Value: "not-a-jwt"})
		_, err := ta.app.sessionUserId(req)
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := ta.app.createSessionToken(42, -time.Minute)
		assert.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: tokenCookieKey, Value: token})
		_, err = ta.app.sessionUserId(req)
		assert.Error(t, err)
	})
}

func TestLoginHandler(t *testing.T) {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	assert.NoError(t, err)
	user := database.User{Id: 3, Username: "carol", Email: "carol@example.com", PasswordHash: string(passwordHash)}

	t.Run("renders the login page", func(t *testing.T) {
		ta := newTestApp(t)
		defer ta.renderer.AssertExpectations(t)

		ta.renderer.On("Render", "login.html.tmpl", mock.AnythingOfType("*web.PageData")).Return(nil).Once()

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/login", nil)
		ta.app.login(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("redirects an already authenticated user", func(t *testing.T) {
		ta := newTestApp(t)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/login", nil)
		req = ta.sessionRequest(t, req, user.Id)
		ta.app.login(rr, req)

		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/", rr.Header().Get("Location"))
	})

	t.Run("shows a notice for an unknown user", func(t *testing.T) {
		ta := newTestApp(t)
		defer ta.repo.AssertExpectations(t)
		defer ta.renderer.AssertExpectations(t)

		ta.repo.On("GetAccountByEmail", "nobody@example.com").Return(database.User{}, sql.ErrNoRows).Once()
		ta.renderer.On("Render", "login.html.tmpl", mock.MatchedBy(func(data *PageData) bool {
			return data.Notice == "user does not exist"
		})).Return(nil).Once()

		form := url.Values{}
		form.Set("email", "nobody@example.com")
		form.Set("password", "password123")

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		ta.app.login(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Nil(t, findCookie(rr, tokenCookieKey))
	})

	t.Run("shows a notice for a wrong password", func(t *testing.T) {
		ta := newTestApp(t)
		defer ta.repo.AssertExpectations(t)
		defer ta.renderer.AssertExpectations(t)

		ta.repo.On("GetAccountByEmail", user.Email).Return(user, nil).Once()
		ta.renderer.On("Render", "login.html.tmpl", mock.MatchedBy(func(data *PageData) bool {
			return data.Notice == "email or password is incorrect"
		})).Return(nil).Once()

		form := url.Values{}
		form.Set("email", user.Email)
		form.Set("password", "wrong")

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		ta.app.login(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("establishes a session on success", func(t *testing.T) {
		ta := newTestApp(t)
		defer ta.repo.AssertExpectations(t)

		ta.repo.On("GetAccountByEmail", user.Email).Return(user, nil).Once()

		form := url.Values{}
		form.Set("email", user.Email)
		form.Set("password", "password123")

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		ta.app.login(rr, req)

		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/", rr.Header().Get("Location"))

		cookie := findCookie(rr, tokenCookieKey)
		assert.NotNil(t, cookie, "expected a session cookie")
		assert.True(t, cookie.HttpOnly)

		sessionReq := httptest.NewRequest(http.MethodGet, "/", nil)
		sessionReq.AddCookie(cookie)
		userId, err := ta.app.sessionUserId(sessionReq)
		assert.NoError(t, err)
		assert.Equal(t, user.Id, userId)
	})
}

func TestLogoutHandler(t *testing.T) {
	ta := newTestApp(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req = ta.sessionRequest(t, req, 3)
	ta.app.logout(rr, req)

	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))

	cookie := findCookie(rr, tokenCookieKey)
	assert.NotNil(t, cookie, "expected the cookie to be overwritten")
	assert.Empty(t, cookie.Value)
	assert.True(t, cookie.Expires.Before(time.Now()), "expected the cookie to be expired")
}

func TestRegisterHandler(t *testing.T) {
	t.Run("renders the register page", func(t *testing.T) {
		ta := newTestApp(t)
		defer ta.renderer.AssertExpectations(t)

		ta.renderer.On("Render", "register.html.tmpl", mock.AnythingOfType("*web.PageData")).Return(nil).Once()

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/register", nil)
		ta.app.register(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	tcases := []struct {
		name   string
		form   url.Values
		notice string
	}{
		{
			name: "missing username",
			form: url.Values{
				"email":    {"newuser@example.com"},
				"password": {"password123"}, "confirm": {"password123"},
			},
			notice: "username is required",
		},
		{
			name: "short password",
			form: url.Values{
				"username": {"newuser"}, "email": {"newuser@example.com"},
				"password": {"short"}, "confirm": {"short"},
			},
			notice: "password must be at least 8 characters",
		},
		{
			name: "mismatched confirmation",
			form: url.Values{
				"username": {"newuser"}, "email": {"newuser@example.com"},
				"password": {"password123"}, "confirm": {"password456"},
			},
			notice: "passwords do not match",
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			ta := newTestApp(t)
			defer ta.renderer.AssertExpectations(t)

			ta.renderer.On("Render", "register.html.tmpl", mock.MatchedBy(func(data *PageData) bool {
				return data.Notice == tc.notice
			})).Return(nil).Once()

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(tc.form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			ta.app.register(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
		})
	}

	t.Run("shows a notice for a duplicate account", func(t *testing.T) {
		ta := newTestApp(t)
		defer ta.repo.AssertExpectations(t)
		defer ta.renderer.AssertExpectations(t)

		ta.repo.On("CreateAccount", mock.AnythingOfType("database.CreateAccountParams")).
			Return(database.User{}, &pq.Error{Code: uniqueViolationCode}).Once()
		ta.renderer.On("Render", "register.html.tmpl", mock.MatchedBy(func(data *PageData) bool {
			return data.Notice == "an account with that username or email already exists"
		})).Return(nil).Once()

		form := url.Values{}
		form.Set("username", "taken")
		form.Set("email", "taken@example.com")
		form.Set("password", "password123")
		form.Set("confirm", "password123")

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		ta.app.register(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("lowercases the username and starts a session", func(t *testing.T) {
		ta := newTestApp(t)
		defer ta.repo.AssertExpectations(t)
		defer ta.stats.AssertExpectations(t)

		created := database.User{Id: 8, Username: "newuser", Email: "newuser@example.com"}
		ta.repo.On("CreateAccount", mock.MatchedBy(func(params database.CreateAccountParams) bool {
			return params.Username == "newuser" && params.Email == created.Email &&
				params.PasswordHash != "password123"
		})).Return(created, nil).Once()
		ta.stats.On("Incr", stats.AccountsRegistered).Once()

		form := url.Values{}
		form.Set("username", "  NewUser ")
		form.Set("email", created.Email)
		form.Set("password", "password123")
		form.Set("confirm", "password123")

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		ta.app.register(rr, req)

		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/", rr.Header().Get("Location"))
		assert.NotNil(t, findCookie(rr, tokenCookieKey))
	})
}
