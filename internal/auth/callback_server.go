package auth

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/Masterminds/sprig/v3"

	"ems/pkg/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.New("pages").Funcs(sprig.HtmlFuncMap()).ParseFS(templateFS, "templates/*.html"))

type successPage struct {
	Username string
	Roles    []string
}

type errorPage struct {
	Title   string
	Message string
	Retry   bool
}

// CallbackServer is the local HTTP listener on the application origin. It
// receives the provider redirect, hands it to the Coordinator and renders
// the outcome in the browser. It also serves the post-logout landing page.
type CallbackServer struct {
	coordinator  *Coordinator
	addr         string
	callbackPath string
	logoutPath   string

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	results  chan Result
	errCh    chan error
}

// NewCallbackServer creates a listener for redirectURI. The host "localhost"
// binds the IPv4 loopback address.
func NewCallbackServer(redirectURI string, coordinator *Coordinator) (*CallbackServer, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URI: %w", err)
	}
	if u.Scheme != "http" {
		return nil, fmt.Errorf("redirect URI %s must use http for a local listener", redirectURI)
	}

	host, port := u.Hostname(), u.Port()
	if port == "" {
		port = "80"
	}
	if host == "localhost" {
		host = "127.0.0.1"
	}

	path := u.Path
	if path == "" {
		path = DefaultCallbackPath
	}

	return &CallbackServer{
		coordinator:  coordinator,
		addr:         net.JoinHostPort(host, port),
		callbackPath: path,
		logoutPath:   DefaultLogoutPath,
		results:      make(chan Result, 4),
		errCh:        make(chan error, 1),
	}, nil
}

// Handler returns the HTTP handler of the listener.
func (s *CallbackServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+s.callbackPath, s.handleCallback)
	mux.HandleFunc("GET "+s.logoutPath, s.handleSignedOut)
	return mux
}

// Start binds the listener and serves in the background until Stop is
// called or ctx is cancelled.
func (s *CallbackServer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return errors.New("callback server already started")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to start callback listener on %s: %w", s.addr, err)
	}

	s.listener = listener
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	server := s.server
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case s.errCh <- err:
			default:
			}
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	logging.Debug("Auth", "Callback listener started on %s%s", listener.Addr(), s.callbackPath)
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *CallbackServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Results delivers the non-duplicate outcome of every handled callback.
func (s *CallbackServer) Results() <-chan Result {
	return s.results
}

// Errors delivers a fatal serve error.
func (s *CallbackServer) Errors() <-chan error {
	return s.errCh
}

// Stop shuts the listener down. It is safe to call more than once.
func (s *CallbackServer) Stop() {
	s.mu.Lock()
	server := s.server
	s.mu.Unlock()

	if server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctx)
}

func setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'unsafe-inline'")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store")
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	setSecurityHeaders(w)

	// The exchange is not aborted when the browser goes away.
	ctx := context.WithoutCancel(r.Context())
	result := s.coordinator.Handle(ctx, ParamsFromQuery(r.URL.Query()))

	switch {
	case result.Duplicate:
		render(w, http.StatusOK, "callback_error.html", errorPage{
			Title:   "Already processed",
			Message: "This sign-in response has already been processed. You can close this window.",
		})
		return
	case result.State == StateSuccess:
		page := successPage{}
		if result.Identity != nil {
			page.Username = result.Identity.Username
			page.Roles = result.Identity.Roles
		}
		render(w, http.StatusOK, "callback_success.html", page)
	default:
		render(w, http.StatusBadRequest, "callback_error.html", errorPage{
			Message: result.Message,
			Retry:   true,
		})
	}

	select {
	case s.results <- result:
	default:
		logging.Warn("Auth", "Dropping callback result, nobody is waiting")
	}
}

func (s *CallbackServer) handleSignedOut(w http.ResponseWriter, _ *http.Request) {
	setSecurityHeaders(w)
	render(w, http.StatusOK, "signed_out.html", nil)
}

func render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		logging.Error("Auth", err, "Failed to render %s", name)
	}
}
