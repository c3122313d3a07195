// Package app wires the server together: config, logging, the session
// registry, the matchmaker and lifecycle coordinator, and the HTTP surface.
package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"paddlebounce/server/internal/match"
	"paddlebounce/server/internal/net/ws"
	"paddlebounce/server/internal/room"
	"paddlebounce/server/internal/services"
	"paddlebounce/server/internal/session"
)

// Countdown for a matched pair starts this long after matchFound, so both
// client UIs have settled.
const matchStartDelay = time.Second

const shutdownTimeout = 5 * time.Second

// Run builds the server and serves until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return eris.Wrapf(err, "invalid log level %q", cfg.LogLevel)
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	registry := session.NewRegistry(logger)
	recorder := services.NewLogRecorder(logger)
	presence := services.NewLogPresence(logger)
	resolver := services.QueryResolver{}

	coordinator := match.NewCoordinator(registry, recorder, presence, room.DefaultConfig(), matchStartDelay, logger)
	matchmaker := match.NewMatchmaker(registry, coordinator, presence, logger)
	wsHandler := ws.NewHandler(registry, matchmaker, coordinator, resolver, cfg.AllowedOrigin, logger)

	startedAt := time.Now()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.Handle)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/diagnostics", func(w http.ResponseWriter, r *http.Request) {
		payload := struct {
			Status       string `json:"status"`
			ServerTime   int64  `json:"serverTime"`
			UptimeMillis int64  `json:"uptimeMillis"`
			QueueDepth   int    `json:"queueDepth"`
			ActiveRooms  int    `json:"activeRooms"`
			TickMillis   int64  `json:"tickMillis"`
		}{
			Status:       "ok",
			ServerTime:   time.Now().UnixMilli(),
			UptimeMillis: time.Since(startedAt).Milliseconds(),
			QueueDepth:   matchmaker.Len(),
			ActiveRooms:  coordinator.ActiveRooms(),
			TickMillis:   room.DefaultConfig().TickInterval.Milliseconds(),
		}
		data, err := json.Marshal(payload)
		if err != nil {
			http.Error(w, "failed to encode", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", cfg.ListenAddr).Msg("server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server failed")
	}
	return nil
}
