package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"github.com/baechuer/real-time-ressys/services/reset-mailer/internal/application/reset"
	"github.com/baechuer/real-time-ressys/services/reset-mailer/internal/metrics"
	appctx "github.com/baechuer/real-time-ressys/services/reset-mailer/internal/pkg/context"
)

const (
	transportName = "http"
	maxBodyBytes  = 1 << 20
)

// Handler is the app-layer contract the HTTP routes call.
type Handler interface {
	Handle(ctx context.Context, req reset.Request) reset.Response
}

type Server struct {
	addr   string
	lg     zerolog.Logger
	srv    *http.Server
	h      Handler
	sender string
}

type Config struct {
	Addr string // ":8090"

	// SenderName is reported by /healthz.
	SenderName string
}

func NewServer(cfg Config, h Handler, lg zerolog.Logger) *Server {
	s := &Server{
		addr:   cfg.Addr,
		lg:     lg.With().Str("component", "reset_web").Logger(),
		h:      h,
		sender: cfg.SenderName,
	}

	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(s.httpLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/password-reset", s.handlePasswordReset)
	})

	return r
}

func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.Stop(context.Background())
	}()

	s.lg.Info().Str("addr", s.addr).Msg("reset web server listening")
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Stop(ctx context.Context) error {
	s.lg.Info().Msg("reset web server shutting down")
	return s.srv.Shutdown(ctx)
}

// ---------------- handlers ----------------

func (s *Server) handlePasswordReset(w http.ResponseWriter, r *http.Request) {
	ctx := appctx.WithTransport(r.Context(), transportName)

	var req reset.Request
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), &req); err != nil {
		s.lg.Warn().Err(err).Str("request_id", appctx.GetRequestID(ctx)).Msg("bad json")
		writeResponse(w, r, reset.MissingFieldsResponse())
		return
	}

	writeResponse(w, r, s.h.Handle(ctx, req))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{
		"status": "ok",
		"sender": s.sender,
	})
}

func writeResponse(w http.ResponseWriter, r *http.Request, resp reset.Response) {
	render.Status(r, resp.StatusCode)
	render.JSON(w, r, resp.Body)
}
