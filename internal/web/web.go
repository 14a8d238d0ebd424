package web

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"path/filepath"

	"github.com/Rishi-pixl/studylounge/internal/config"
	"github.com/Rishi-pixl/studylounge/internal/database"
	"github.com/Rishi-pixl/studylounge/internal/server"
	"github.com/Rishi-pixl/studylounge/internal/stats"
	"github.com/Rishi-pixl/studylounge/internal/types"
	"github.com/gorilla/handlers"
)

type StudyLoungeApp struct {
	log            *log.Logger
	db             database.StudyLoungeRepository
	srv            *http.Server
	fs             *server.FeedServer
	renderer       PageRenderer
	stats          stats.StatsProvider
	signingKey     []byte
	allowedOrigins []string
	uploadDir      string
}

func NewStudyLoungeApp(mux *http.ServeMux, logger *log.Logger, fs *server.FeedServer,
	db database.StudyLoungeRepository, renderer PageRenderer, statsProvider stats.StatsProvider,
	cfg *config.Config) *StudyLoungeApp {
	s := &StudyLoungeApp{
		log:            logger,
		db:             db,
		fs:             fs,
		renderer:       renderer,
		stats:          statsProvider,
		signingKey:     cfg.SigningKey,
		allowedOrigins: cfg.AllowedOrigins,
		uploadDir:      cfg.UploadDir,
	}

	statsProvider.RegisterMetric(stats.AccountsRegistered)
	statsProvider.RegisterMetric(stats.RoomsCreated)
	statsProvider.RegisterMetric(stats.MessagesPosted)

	mux.HandleFunc("GET /{$}", s.home)
	mux.HandleFunc("/login", s.login)
	mux.HandleFunc("GET /logout", s.logout)
	mux.HandleFunc("/register", s.register)
	mux.HandleFunc("GET /topics", s.topics)
	mux.HandleFunc("GET /activity", s.activity)
	mux.HandleFunc("/rooms/new", s.requireAuth(s.createRoom))
	mux.HandleFunc("/rooms/{id}", s.room)
	mux.HandleFunc("/rooms/{id}/edit", s.requireAuth(s.updateRoom))
	mux.HandleFunc("/rooms/{id}/delete", s.requireAuth(s.deleteRoom))
	mux.HandleFunc("GET /rooms/{id}/feed", s.requireAuth(s.serveFeed))
	mux.HandleFunc("/messages/{id}/delete", s.requireAuth(s.deleteMessage))
	mux.HandleFunc("GET /users/{id}", s.userProfile)
	mux.HandleFunc("/account/edit", s.requireAuth(s.updateAccount))
	mux.HandleFunc("GET /healthz", s.healthCheck)
	mux.HandleFunc("GET /uploads/{file}", s.serveUpload)

	h := handlers.LoggingHandler(logger.Writer(), mux)
	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.srv = srv
	return s
}

func (s *StudyLoungeApp) Start() error {
	s.log.Printf("starting server on %s\n", s.srv.Addr)
	return s.srv.ListenAndServe()
}

func (s *StudyLoungeApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}

// render buffers the page so a template failure surfaces as a 500 instead
// of a half-written response.
func (s *StudyLoungeApp) render(w http.ResponseWriter, statusCode int, page string, data *PageData) {
	buf := &bytes.Buffer{}
	if err := s.renderer.Render(buf, page, data); err != nil {
		s.log.Printf("render %s: %v", page, err)
		s.httpError(w, NewInternalServerError(err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	buf.WriteTo(w)
}

func (s *StudyLoungeApp) httpError(w http.ResponseWriter, errResp *HTTPError) {
	if errResp.Err != nil {
		s.log.Println(errResp.Error())
	}

	http.Error(w, errResp.Message, errResp.StatusCode)
}

// sessionUser resolves the requester's account for pages that adapt to an
// optional identity. Anonymous or stale sessions yield nil.
func (s *StudyLoungeApp) sessionUser(r *http.Request) *types.User {
	userId, err := s.sessionUserId(r)
	if err != nil {
		return nil
	}

	dbUser, err := s.db.GetAccountById(userId)
	if err != nil {
		return nil
	}

	u := toUser(dbUser)
	return &u
}

// serveUpload serves a single stored avatar by name. The pattern never
// matches the bare /uploads/ directory, so nothing ever lists the upload
// dir's contents.
func (s *StudyLoungeApp) serveUpload(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(r.PathValue("file"))
	http.ServeFile(w, r, filepath.Join(s.uploadDir, name))
}

func (s *StudyLoungeApp) healthCheck(w http.ResponseWriter, _ *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.log.Println("health check:", err)
		s.httpError(w, NewInternalServerError(err))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
