// Package testutil provides shared fakes for tests across packages: a fixed
// clock and an in-memory backend that honours the collection HTTP contract.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tartampluch/go-waifu-birthday/internal/config"
	"github.com/tartampluch/go-waifu-birthday/internal/engine"
)

// FixedClock is a Clock frozen at T.
type FixedClock struct {
	T time.Time
}

// Now implements engine.Clock.
func (c FixedClock) Now() time.Time { return c.T }

// Request is a recorded call against the fake backend.
type Request struct {
	Method   string
	Path     string
	Identity string
	Body     map[string]any
}

type stored struct {
	id          int
	name, image string
	about       string
	month, day  int
}

// Backend is an in-memory implementation of the collection backend.
// Entries are partitioned by the X-User-Id header and resolved with Resolver.
type Backend struct {
	Server   *httptest.Server
	Resolver engine.Resolver

	mu       sync.Mutex
	nextID   int
	entries  map[string][]stored
	results  map[string][]engine.SearchResult
	requests []Request
	failures map[string]int
}

// NewBackend starts the fake backend. Call Close when done.
func NewBackend(resolver engine.Resolver) *Backend {
	b := &Backend{
		Resolver: resolver,
		nextID:   1,
		entries:  make(map[string][]stored),
		results:  make(map[string][]engine.SearchResult),
		failures: make(map[string]int),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /search/{term}", b.handleSearch)
	mux.HandleFunc("GET /dashboard", b.handleDashboard)
	mux.HandleFunc("POST /add", b.handleAdd)
	mux.HandleFunc("DELETE /delete/{id}", b.handleDelete)
	b.Server = httptest.NewServer(b.record(mux))
	return b
}

// URL returns the base URL of the fake.
func (b *Backend) URL() string { return b.Server.URL }

// Close stops the server.
func (b *Backend) Close() { b.Server.Close() }

// SetResults registers the response for a search term.
func (b *Backend) SetResults(term string, results []engine.SearchResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.results[strings.ToLower(term)] = results
}

// Seed stores an entry directly for identity and returns its id.
func (b *Backend) Seed(identity, name string, month, day int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.entries[identity] = append(b.entries[identity], stored{id: id, name: name, month: month, day: day})
	return id
}

// FailNext makes the next n requests to route return 500.
func (b *Backend) FailNext(route string, n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[route] = n
}

// Requests returns a copy of every recorded request.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// Count returns how many requests matched method and path prefix.
func (b *Backend) Count(method, prefix string) int {
	n := 0
	for _, r := range b.Requests() {
		if r.Method == method && strings.HasPrefix(r.Path, prefix) {
			n++
		}
	}
	return n
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := Request{Method: r.Method, Path: r.URL.Path, Identity: r.Header.Get(config.HeaderUserID)}
		if r.Body != nil && r.Method == http.MethodPost {
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &req.Body)
			r.Body = io.NopCloser(bytes.NewReader(raw))
		}

		b.mu.Lock()
		b.requests = append(b.requests, req)
		route := routeOf(r.URL.Path)
		fail := b.failures[route] > 0
		if fail {
			b.failures[route]--
		}
		b.mu.Unlock()

		if fail {
			http.Error(w, `{"detail":"injected failure"}`, http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) handleSearch(w http.ResponseWriter, r *http.Request) {
	term := strings.ToLower(r.PathValue("term"))
	b.mu.Lock()
	res := b.results[term]
	b.mu.Unlock()
	if res == nil {
		res = []engine.SearchResult{}
	}
	writeJSON(w, http.StatusOK, res)
}

func (b *Backend) handleDashboard(w http.ResponseWriter, r *http.Request) {
	identity := r.Header.Get(config.HeaderUserID)
	if identity == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "missing x-user-id"})
		return
	}

	b.mu.Lock()
	rows := append([]stored(nil), b.entries[identity]...)
	b.mu.Unlock()

	out := make([]engine.CollectionEntry, 0, len(rows))
	for _, s := range rows {
		days, status := b.Resolver.Resolve(s.month, s.day)
		out = append(out, engine.CollectionEntry{
			ID: s.id, Name: s.name, Image: s.image, DaysUntil: days, Status: status,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DaysUntil < out[j].DaysUntil })
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) handleAdd(w http.ResponseWriter, r *http.Request) {
	identity := r.Header.Get(config.HeaderUserID)
	var req engine.NewEntry
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || identity == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "invalid request"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.entries[identity] {
		if s.name == req.Name {
			writeJSON(w, http.StatusOK, engine.AddResponse{Message: req.Name + " is already in your list!"})
			return
		}
	}

	month, day := 0, 0
	if req.ManualMonth != nil && req.ManualDay != nil {
		month, day = *req.ManualMonth, *req.ManualDay
	} else if m, d, ok := engine.ExtractBirthday(req.About); ok {
		month, day = m, d
	}

	b.entries[identity] = append(b.entries[identity], stored{
		id: b.nextID, name: req.Name, image: req.Image, about: req.About, month: month, day: day,
	})
	b.nextID++

	msg := "Saved " + req.Name + "!"
	if month != 0 {
		msg += fmt.Sprintf(" (Birthday: %d/%d)", month, day)
	} else {
		msg += " (Date set to Unknown)"
	}
	writeJSON(w, http.StatusOK, engine.AddResponse{Message: msg})
}

func (b *Backend) handleDelete(w http.ResponseWriter, r *http.Request) {
	identity := r.Header.Get(config.HeaderUserID)
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "invalid id"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	rows := b.entries[identity]
	for i, s := range rows {
		if s.id == id {
			b.entries[identity] = append(rows[:i:i], rows[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted successfully"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Entry not found (or you don't own it)"})
}

func routeOf(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if i := strings.Index(trimmed, "/"); i >= 0 {
		trimmed = trimmed[:i]
	}
	return "/" + trimmed
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(config.HeaderContentType, config.MimeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
