package net

import (
	"encoding/json"
	nethttp "net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"lasertag/server"
	"lasertag/server/internal/net/ws"
)

type HTTPHandlerConfig struct {
	Logger *zap.Logger
}

// NewHTTPHandler assembles the REST surface and mounts the websocket routes.
func NewHTTPHandler(registry *server.Registry, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	wsHandler := ws.NewHandler(registry, ws.HandlerConfig{Logger: logger})

	r := chi.NewRouter()

	r.Get("/healthz", func(w nethttp.ResponseWriter, req *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	r.Post("/sessions", func(w nethttp.ResponseWriter, req *nethttp.Request) {
		code, err := registry.NewCode()
		if err != nil {
			logger.Error("failed to mint session code", zap.Error(err))
			httpError(w, "failed to generate code", nethttp.StatusInternalServerError)
			return
		}

		payload := struct {
			ID string `json:"id"`
		}{ID: code}

		data, err := json.Marshal(payload)
		if err != nil {
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	r.Get("/sessions", func(w nethttp.ResponseWriter, req *nethttp.Request) {
		payload := struct {
			Sessions []server.SessionSummary `json:"sessions"`
		}{Sessions: registry.Summaries()}

		data, err := json.Marshal(payload)
		if err != nil {
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	r.Get("/ws/{mode}/{id}", wsHandler.HandlePlayer)
	r.Get("/ws/{mode}/{id}/spectate", wsHandler.HandleSpectator)
	r.Get("/ws/{mode}/{id}/colorcheck", wsHandler.HandleColorCheck)

	return r
}

func httpError(w nethttp.ResponseWriter, msg string, code int) {
	nethttp.Error(w, msg, code)
}
