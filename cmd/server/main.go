package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/trellislab/trellis/backend-go/internal/config"
	"github.com/trellislab/trellis/backend-go/internal/export"
	"github.com/trellislab/trellis/backend-go/internal/live"
	mw "github.com/trellislab/trellis/backend-go/internal/middleware"
	"github.com/trellislab/trellis/backend-go/internal/session"
	"github.com/trellislab/trellis/backend-go/internal/sketch"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	origins := strings.Split(cfg.AllowedOrigins, ",")

	sketchService := session.NewService(cfg.SessionSecret)
	sketchHandler := session.NewHandler(sketchService)
	exportHandler := export.NewHandler(sketchService, cfg.SVGMargin, cfg.ExportDir)

	// A pre-grown sketch so a fresh server has something to look at.
	sample, sampleToken, err := sketchService.CreateWith("welcome", sketch.NewSampleSketch())
	if err != nil {
		slog.Error("seed sample sketch", "error", err)
		os.Exit(1)
	}
	slog.Info("sample sketch ready", "id", sample.ID, "editToken", sampleToken)

	hub := live.NewHub(sketchService)
	go hub.Run()

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(origins))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Reads are public so shared links work without a token
	api.HandleFunc("/sketches", sketchHandler.List).Methods("GET")
	api.HandleFunc("/sketches", sketchHandler.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/sketches/{sketchId}", sketchHandler.Get).Methods("GET")
	api.HandleFunc("/sketches/{sketchId}/scene", sketchHandler.Scene).Methods("GET")
	api.HandleFunc("/sketches/{sketchId}/hit", sketchHandler.HitSeed).Methods("GET")
	api.HandleFunc("/sketches/{sketchId}/export/{format}", exportHandler.Export).Methods("GET")

	// Mutations require the edit token handed out at creation
	edit := api.PathPrefix("/sketches/{sketchId}").Subrouter()
	edit.Use(sketchService.EditMiddleware)
	edit.HandleFunc("", sketchHandler.Delete).Methods("DELETE", "OPTIONS")
	edit.HandleFunc("/ops", sketchHandler.ApplyOp).Methods("POST", "OPTIONS")

	// WebSocket endpoint
	r.HandleFunc("/ws/sketch/{sketchId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, sketchService, originPatterns(origins))
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *live.Hub, sketches *session.Service, origins []string) {
	vars := mux.Vars(r)
	sketchID := vars["sketchId"]

	if _, err := sketches.Get(sketchID); err != nil {
		http.Error(w, "sketch not found", http.StatusNotFound)
		return
	}

	// A valid edit token makes the connection an editor. Without one
	// the client joins as a viewer and only receives updates.
	canEdit := false
	if token := r.URL.Query().Get("token"); token != "" {
		if err := sketches.ValidateEditToken(token, sketchID); err != nil {
			if errors.Is(err, session.ErrForbidden) {
				http.Error(w, "token is for another sketch", http.StatusForbidden)
				return
			}
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		canEdit = true
	}

	displayName := r.URL.Query().Get("name")
	if displayName == "" {
		displayName = "Anonymous"
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: origins,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := live.NewClient(hub, conn, sketchID, clientID, displayName, canEdit)

	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}

// originPatterns strips URL schemes; the websocket origin check matches
// host patterns, not full origins.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, origin := range origins {
		origin = strings.TrimPrefix(origin, "http://")
		origin = strings.TrimPrefix(origin, "https://")
		patterns = append(patterns, origin)
	}
	return patterns
}
