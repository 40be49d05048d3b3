// Package server serves expression evaluation over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zephyrtronium/exprcalc"
	"github.com/zephyrtronium/exprcalc/internal/bindings"
	"github.com/zephyrtronium/exprcalc/internal/render"
)

// RequestIDHeader is the header carrying a request's ID.
const RequestIDHeader = "X-Request-ID"

// Server evaluates expressions sent over HTTP.
type Server struct {
	log    zerolog.Logger
	base   *exprcalc.Context
	engine *gin.Engine
}

// New creates a server. Every request is evaluated in a clone of the context
// created with opts.
func New(log zerolog.Logger, opts ...exprcalc.ContextOption) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		log:    log,
		base:   exprcalc.NewContext(opts...),
		engine: gin.New(),
	}
	s.engine.Use(s.requestID(), s.logRequests(), gin.Recovery())
	v1 := s.engine.Group("/v1")
	v1.POST("/evaluate", s.evaluate())
	v1.GET("/functions", s.functions())
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	s.log.Info().Str("addr", addr).Msg("listening")
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		ev := s.log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = s.log.Error()
		}
		ev.Str("request_id", c.GetString("requestID")).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

type evaluateRequest struct {
	Expression string         `json:"expression"`
	Variables  map[string]any `json:"variables"`
}

func (s *Server) evaluate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req evaluateRequest
		dec := json.NewDecoder(c.Request.Body)
		dec.UseNumber()
		if err := dec.Decode(&req); err != nil {
			respond(c, http.StatusBadRequest, gin.H{"error": "malformed request body: " + err.Error()})
			return
		}
		opts := make([]exprcalc.ContextOption, 0, len(req.Variables))
		for k, v := range req.Variables {
			if !bindings.IsIdentifier(k) {
				respond(c, http.StatusBadRequest, gin.H{"error": "invalid variable name '" + k + "'"})
				return
			}
			opts = append(opts, exprcalc.SetVar(k, render.FromJSON(v)))
		}
		ctx := s.base.Clone(opts...)
		r, err := ctx.EvalString(req.Expression)
		if err != nil {
			s.log.Debug().
				Str("request_id", c.GetString("requestID")).
				Str("expression", req.Expression).
				Err(err).
				Msg("evaluation failed")
			respond(c, http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		respond(c, http.StatusOK, gin.H{"result": render.Plain(r), "repr": render.Repr(r)})
	}
}

func (s *Server) functions() gin.HandlerFunc {
	return func(c *gin.Context) {
		respond(c, http.StatusOK, gin.H{"functions": exprcalc.ListFunctions()})
	}
}

// respond writes a JSON response.
func respond(c *gin.Context, status int, obj any) {
	b, err := json.Marshal(obj)
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.Data(status, "application/json; charset=utf-8", b)
}
