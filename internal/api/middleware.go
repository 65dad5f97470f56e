package api

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/robot-relay/internal/infrastructure/config"
)

type contextKey string

const (
	ctxKeyRequestID contextKey = "request_id"

	headerRequestID = "X-Request-ID"

	// maxRequestBodySize caps JSON request bodies (64 KB).
	maxRequestBodySize = 64 << 10
)

// requestIDFrom returns the id requestIDMiddleware stored on r, or "".
func requestIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(ctxKeyRequestID).(string)
	return id
}

// requestIDMiddleware echoes a client-supplied X-Request-ID or assigns a
// fresh one, and stores it on the request context.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, id)))
	})
}

// accessLogMiddleware logs one debug line per request. For WebSocket
// upgrades the line is written when the handshake completes (status 101),
// not when the socket closes.
func (s *Server) accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"bytes", sw.written,
			"remote", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestIDFrom(r),
		)
	})
}

// recoveryMiddleware turns a handler panic into a 500 and logs the stack.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			s.logger.Error("panic recovered in HTTP handler",
				"error", rec,
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", requestIDFrom(r),
				"stack", string(debug.Stack()),
			)
			writeInternalError(w, r, "internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}

// corsPolicy is the CORS configuration resolved once at startup.
type corsPolicy struct {
	anyOrigin bool
	origins   map[string]struct{}
	methods   string
	headers   string
}

func newCORSPolicy(cfg config.CORSConfig) corsPolicy {
	p := corsPolicy{
		anyOrigin: len(cfg.AllowedOrigins) == 0,
		origins:   make(map[string]struct{}, len(cfg.AllowedOrigins)),
		methods:   "GET, POST, OPTIONS",
		headers:   "Content-Type, " + headerRequestID,
	}
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			p.anyOrigin = true
		}
		p.origins[o] = struct{}{}
	}
	if len(cfg.AllowedMethods) > 0 {
		p.methods = strings.Join(cfg.AllowedMethods, ", ")
	}
	if len(cfg.AllowedHeaders) > 0 {
		p.headers = strings.Join(cfg.AllowedHeaders, ", ")
	}
	return p
}

func (p corsPolicy) allows(origin string) bool {
	if p.anyOrigin {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

// corsMiddleware sets CORS headers for allowed origins and answers
// preflight requests with 204.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && s.cors.allows(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", s.cors.methods)
			h.Set("Access-Control-Allow-Headers", s.cors.headers)
			h.Set("Access-Control-Max-Age", "86400")
			h.Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) bodyLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		}
		next.ServeHTTP(w, r)
	})
}

// statusWriter records the status code and body size for the access log.
// Hijack is forwarded so gorilla can take over the connection.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written int64
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.written += int64(n)
	return n, err
}

func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
