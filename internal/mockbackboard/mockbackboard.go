// Package mockbackboard is a lightweight Backboard-compatible server for
// tests and local development. It implements the assistant/thread/message
// endpoints with canned answers.
package mockbackboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort    = 18090
	defaultDelayMS = 20
)

// DefaultAnswer is returned for every message unless overridden; it contains
// "YES" so the citation flow is exercised end to end.
const DefaultAnswer = "YES - this clause grants the company broad rights over user data."

// Server is the in-process mock. Answer is returned verbatim for every
// message post.
type Server struct {
	Answer string
	delay  time.Duration
}

// Start launches the mock on addr. If addr is empty it listens on
// 127.0.0.1:MOCK_BACKBOARD_PORT (default 18090). It returns a shutdown
// function and the base URL.
func Start(addr string) (func(context.Context) error, string, error) {
	if strings.TrimSpace(addr) == "" {
		port := strings.TrimSpace(os.Getenv("MOCK_BACKBOARD_PORT"))
		if port == "" {
			port = strconv.Itoa(defaultPort)
		}
		addr = "127.0.0.1:" + port
	}

	delay := defaultDelayMS
	if val := strings.TrimSpace(os.Getenv("MOCK_BACKBOARD_DELAY_MS")); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed >= 0 {
			delay = parsed
		}
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", fmt.Errorf("listen on %s: %w", addr, err)
	}

	s := &Server{Answer: DefaultAnswer, delay: time.Duration(delay) * time.Millisecond}
	srv := &http.Server{Handler: s.Handler()}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("mock backboard serve", "error", err)
		}
	}()

	baseURL := "http://" + ln.Addr().String()
	return srv.Shutdown, baseURL, nil
}

// Handler exposes the mock routes for httptest-based callers.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /assistants", func(w http.ResponseWriter, r *http.Request) {
		s.pause()
		writeJSON(w, map[string]string{"assistant_id": "asst_mock"})
	})
	mux.HandleFunc("POST /assistants/{id}/threads", func(w http.ResponseWriter, r *http.Request) {
		s.pause()
		writeJSON(w, map[string]string{"thread_id": "thread_mock"})
	})
	mux.HandleFunc("POST /threads/{id}/messages", func(w http.ResponseWriter, r *http.Request) {
		s.pause()
		if err := r.ParseForm(); err != nil || strings.TrimSpace(r.PostFormValue("content")) == "" {
			http.Error(w, "missing content", http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]string{"content": s.Answer})
	})
	return mux
}

func (s *Server) pause() {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("mock backboard write", "error", err)
	}
}
