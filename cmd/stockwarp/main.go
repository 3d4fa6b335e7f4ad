package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/dense-analysis/stockwarp/internal/alert"
	"github.com/dense-analysis/stockwarp/internal/applog"
	"github.com/dense-analysis/stockwarp/internal/config"
	"github.com/dense-analysis/stockwarp/internal/database"
	"github.com/dense-analysis/stockwarp/internal/env"
	"github.com/dense-analysis/stockwarp/internal/quotes"
	alertroute "github.com/dense-analysis/stockwarp/internal/route/alert"
	"github.com/dense-analysis/stockwarp/internal/route/auth"
	"github.com/dense-analysis/stockwarp/internal/session"
)

func handleIndex(users *session.DBUserSource) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		user, err := users.LoadUser(request)

		if err != nil {
			writer.WriteHeader(http.StatusInternalServerError)
			fmt.Fprintf(writer, "database connection error\n")

			return
		}

		if user != nil {
			http.Redirect(writer, request, "/api/alerts", http.StatusFound)
		} else {
			http.Redirect(writer, request, "/login", http.StatusFound)
		}
	}
}

func main() {
	env.LoadEnvironmentVariables()

	ctx := context.Background()
	cfg, err := config.Load(ctx)

	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %s\n", err)
		os.Exit(1)
	}

	logger, err := applog.Install(cfg.LogLevel)

	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %s\n", err)
		os.Exit(1)
	}

	defer logger.Sync()

	conn, err := database.Connect(ctx)

	if err != nil {
		logger.Fatal("database connection error", zap.Error(err))
	}

	defer conn.Close()

	quoteStore, err := quotes.Connect(ctx, cfg)

	if err != nil {
		logger.Fatal("quote database connection error", zap.Error(err))
	}

	defer quoteStore.Close()

	session.InitSessionStorage(cfg.SecretKey)

	users := &session.DBUserSource{DB: conn}
	authHandler := &auth.Handler{DB: conn}
	alertHandler := &alertroute.Handler{
		Store:  &alert.RowStore{DB: conn},
		Users:  users,
		Quotes: quoteStore,
	}

	router := mux.NewRouter().StrictSlash(true)

	router.HandleFunc("/", handleIndex(users)).Methods("GET")
	router.HandleFunc("/login", authHandler.HandleViewLoginForm).Methods("GET")
	router.HandleFunc("/login", authHandler.HandleLogin).Methods("POST")
	router.HandleFunc("/logout", authHandler.HandleLogout).Methods("POST")
	alertHandler.Register(router)

	server := http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.Int("port", cfg.Port))
	<-done

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server shut down failed", zap.Error(err))
	}

	logger.Info("Server shut down successfully")
}
