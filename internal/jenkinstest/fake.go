// Package jenkinstest implements a fake Jenkins controller for tests.
//
// It serves the handful of endpoints the provisioner talks to over a real
// network connection, and records every request it receives.
package jenkinstest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
)

// Request is a request received by the fake.
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     []byte
}

type cannedResponse struct {
	status int
	header http.Header
	body   string
}

type Option = func(*Server)

// Server is a fake Jenkins controller.
type Server struct {
	*httptest.Server

	username string
	password string

	crumbField string
	crumbValue string

	mu       sync.Mutex
	jobs     map[string][]byte       // full job name -> config.xml
	builds   map[string][]url.Values // full job name -> build parameters
	canned   map[string]cannedResponse
	requests []Request
}

// NewServer starts a fake controller. Callers should Close it.
func NewServer(opts ...Option) *Server {
	s := &Server{
		jobs:   make(map[string][]byte),
		builds: make(map[string][]url.Values),
		canned: make(map[string]cannedResponse),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// WithCredentials makes the fake require basic auth with user and pass.
func WithCredentials(user, pass string) Option {
	return func(s *Server) { s.username, s.password = user, pass }
}

// WithCrumb enables CSRF protection: the crumb issuer hands out value, and
// POSTs without it in the field header are rejected with 403.
func WithCrumb(field, value string) Option {
	return func(s *Server) { s.crumbField, s.crumbValue = field, value }
}

// WithJob pre-creates a job.
func WithJob(name string, config []byte) Option {
	return func(s *Server) { s.jobs[name] = config }
}

// WithResponse makes requests for method and path return status and body
// instead of the fake's normal behaviour.
func WithResponse(method, path string, status int, body string) Option {
	return WithResponseHeader(method, path, status, body, nil)
}

// WithResponseHeader is WithResponse with extra response headers.
func WithResponseHeader(method, path string, status int, body string, header http.Header) Option {
	return func(s *Server) {
		s.canned[method+" "+path] = cannedResponse{status: status, header: header, body: body}
	}
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests matched method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Job returns the stored configuration of a job.
func (s *Server) Job(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	config, ok := s.jobs[name]
	return config, ok
}

// Builds returns the parameters of every build triggered for a job.
func (s *Server) Builds(name string) []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]url.Values(nil), s.builds[name]...)
}

func (s *Server) handle(rw http.ResponseWriter, req *http.Request) {
	body, _ := io.ReadAll(req.Body)

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method:   req.Method,
		Path:     req.URL.Path,
		RawQuery: req.URL.RawQuery,
		Header:   req.Header.Clone(),
		Body:     body,
	})
	canned, isCanned := s.canned[req.Method+" "+req.URL.Path]
	s.mu.Unlock()

	if s.username != "" {
		user, pass, ok := req.BasicAuth()
		if !ok || user != s.username || pass != s.password {
			rw.Header().Set("WWW-Authenticate", `Basic realm="Jenkins"`)
			http.Error(rw, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	if isCanned {
		for k, vs := range canned.header {
			for _, v := range vs {
				rw.Header().Add(k, v)
			}
		}
		rw.WriteHeader(canned.status)
		fmt.Fprint(rw, canned.body) //nolint:errcheck // The test would still fail
		return
	}

	if req.Method == http.MethodPost && s.crumbField != "" && req.Header.Get(s.crumbField) != s.crumbValue {
		http.Error(rw, "No valid crumb was included in the request", http.StatusForbidden)
		return
	}

	job, rest := parseJobPath(req.URL.Path)

	switch {
	case req.Method == http.MethodGet && req.URL.Path == "/api/json":
		rw.Header().Set("X-Jenkins", "2.440.3")
		writeJSON(rw, map[string]any{
			"mode":            "NORMAL",
			"nodeDescription": "the Jenkins controller's built-in node",
			"useCrumbs":       s.crumbField != "",
			"useSecurity":     s.username != "",
		})

	case req.Method == http.MethodGet && req.URL.Path == "/crumbIssuer/api/json":
		if s.crumbField == "" {
			http.NotFound(rw, req)
			return
		}
		writeJSON(rw, map[string]string{
			"_class":            "hudson.security.csrf.DefaultCrumbIssuer",
			"crumb":             s.crumbValue,
			"crumbRequestField": s.crumbField,
		})

	case req.Method == http.MethodPost && rest == "createItem":
		name := req.URL.Query().Get("name")
		if job != "" {
			name = job + "/" + name
		}
		s.mu.Lock()
		_, exists := s.jobs[name]
		if !exists {
			s.jobs[name] = body
		}
		s.mu.Unlock()
		if exists {
			msg := fmt.Sprintf("A job already exists with the name '%s'", name)
			rw.Header().Set("X-Error", msg)
			http.Error(rw, msg, http.StatusBadRequest)
			return
		}
		rw.WriteHeader(http.StatusOK)

	case job == "":
		http.NotFound(rw, req)

	case req.Method == http.MethodGet && rest == "api/json":
		if _, ok := s.Job(job); !ok {
			http.NotFound(rw, req)
			return
		}
		writeJSON(rw, map[string]any{
			"_class":    "org.jenkinsci.plugins.workflow.job.WorkflowJob",
			"name":      job[strings.LastIndex(job, "/")+1:],
			"fullName":  job,
			"url":       s.URL + req.URL.Path[:len(req.URL.Path)-len("api/json")],
			"buildable": true,
			"color":     "notbuilt",
		})

	case req.Method == http.MethodPost && rest == "config.xml":
		s.mu.Lock()
		_, exists := s.jobs[job]
		if exists {
			s.jobs[job] = body
		}
		s.mu.Unlock()
		if !exists {
			http.NotFound(rw, req)
			return
		}
		rw.WriteHeader(http.StatusOK)

	case req.Method == http.MethodPost && (rest == "build" || rest == "buildWithParameters"):
		params, _ := url.ParseQuery(string(body))
		s.mu.Lock()
		_, exists := s.jobs[job]
		if exists {
			s.builds[job] = append(s.builds[job], params)
		}
		n := len(s.builds[job])
		s.mu.Unlock()
		if !exists {
			http.NotFound(rw, req)
			return
		}
		rw.Header().Set("Location", fmt.Sprintf("%s/queue/item/%d/", s.URL, n))
		rw.WriteHeader(http.StatusCreated)

	default:
		http.NotFound(rw, req)
	}
}

// parseJobPath splits "/job/a/job/b/config.xml" into ("a/b", "config.xml").
func parseJobPath(p string) (job, rest string) {
	segments := strings.Split(strings.Trim(p, "/"), "/")
	var names []string
	i := 0
	for i+1 < len(segments) && segments[i] == "job" {
		name, err := url.PathUnescape(segments[i+1])
		if err != nil {
			name = segments[i+1]
		}
		names = append(names, name)
		i += 2
	}
	return strings.Join(names, "/"), strings.Join(segments[i:], "/")
}

func writeJSON(rw http.ResponseWriter, v any) {
	rw.Header().Set("Content-Type", "application/json;charset=utf-8")
	json.NewEncoder(rw).Encode(v) //nolint:errcheck // The test would still fail
}
