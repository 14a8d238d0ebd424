package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Rishi-pixl/studylounge/internal/config"
	"github.com/Rishi-pixl/studylounge/internal/database"
	"github.com/Rishi-pixl/studylounge/internal/server"
	"github.com/Rishi-pixl/studylounge/internal/stats"
	"github.com/Rishi-pixl/studylounge/internal/web"
	_ "github.com/lib/pq"
)

const defaultSigningKey = "kq3HhUuBcDzLxWOeQdPVhT1n0M4y8cR2vF6sJgErA5w="

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	addr           string
	dsn            string
	signingKey     string
	templateDir    string
	uploadDir      string
	migrationsURL  string
	allowedOrigins stringSliceFlag
)

func main() {
	flag.StringVar(&addr, "addr", "localhost:8000", "server address")
	flag.StringVar(&dsn, "dsn", "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable", "database connection string")
	flag.StringVar(&signingKey, "signing-key", defaultSigningKey, "base64 encoded signing key")
	flag.StringVar(&templateDir, "template-dir", "web/templates", "directory containing page templates")
	flag.StringVar(&uploadDir, "upload-dir", "uploads", "directory for uploaded avatars")
	flag.StringVar(&migrationsURL, "migrations", "file://internal/database/migrations", "migration source URL")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for the room feed")
	flag.Parse()

	logger := log.New(os.Stderr, "[studylounge] ", log.LstdFlags)

	cfg, err := config.NewConfig(addr, dsn, signingKey, templateDir, uploadDir, allowedOrigins)
	if err != nil {
		logger.Fatal("config:", err)
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		logger.Fatal("upload dir:", err)
	}

	dbConn, err := database.NewPgStudyLoungeRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("db open:", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Fatal("db close:", err)
		}
	}()

	if err := dbConn.Migrate(migrationsURL); err != nil {
		logger.Fatal("db migrate:", err)
	}

	renderer, err := web.NewTemplateCache(cfg.TemplateDir)
	if err != nil {
		logger.Fatal("templates:", err)
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	feedServer := server.NewFeedServer(logger, statsUpdater)

	srv := web.NewStudyLoungeApp(mux, logger, feedServer, dbConn, renderer, statsUpdater, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	go feedServer.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutting down feed server...")
	if err := feedServer.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("feed server shutdown:", err)
	}

	logger.Println("shutdown complete")
}
