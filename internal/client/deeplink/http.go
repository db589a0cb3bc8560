package deeplink

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophstash/internal/logging"
	"github.com/gorilla/mux"
)

const callbackPage = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>gophstash</title></head>
<body>
<p id="msg">Completing sign in...</p>
<script>
var data = location.hash ? location.hash.substring(1) : location.search.substring(1);
fetch("/auth/callback/fragment", {method: "POST", body: data})
  .then(function (r) {
    document.getElementById("msg").textContent = r.ok
      ? "Signed in. You can close this window and return to the terminal."
      : "Sign in failed. Return to the terminal for details.";
  });
</script>
</body>
</html>
`

const maxFragmentSize = 16 << 10

// CallbackServer is a loopback HTTP endpoint used as the OAuth redirect
// target when a custom URL scheme is not registered. The browser keeps the
// fragment to itself, so the served page posts it back.
type CallbackServer struct {
	address string
	handler Handler
	logger  logging.Logger
}

func NewCallbackServer(address string, h Handler, l logging.Logger) *CallbackServer {
	return &CallbackServer{
		address: address,
		handler: h,
		logger:  l.With("module", "callback_server"),
	}
}

// RedirectURL is the redirect target to register with the provider.
func (s *CallbackServer) RedirectURL() string {
	return "http://" + s.address + "/" + CallbackPath
}

func (s *CallbackServer) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/"+CallbackPath, s.page).Methods(http.MethodGet)
	r.Handle("/"+CallbackPath+"/fragment", s.sameOrigin(http.HandlerFunc(s.fragment))).Methods(http.MethodPost)
	return r
}

// sameOrigin rejects posts carrying a foreign Origin. Requests without an
// Origin header (non-browser clients) pass.
func (s *CallbackServer) sameOrigin(next http.Handler) http.Handler {
	own := "http://" + s.address
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && origin != own {
			s.logger.Warn(r.Context(), "Rejected cross-origin callback", "origin", origin)
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *CallbackServer) page(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = io.WriteString(w, callbackPage)
}

func (s *CallbackServer) fragment(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxFragmentSize))
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	raw := s.RedirectURL() + "#" + strings.TrimPrefix(strings.TrimSpace(string(body)), "#")
	if err := s.handler.HandleURL(r.Context(), raw); err != nil {
		var oe *OAuthError
		if errors.Is(err, ErrNotCallback) || errors.Is(err, ErrMissingTokens) || errors.As(err, &oe) {
			s.logger.Warn(r.Context(), "Rejected callback", "error", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.logger.Error(r.Context(), "Callback handling failed", "error", err)
		http.Error(w, "sign in failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Run serves the callback endpoints until ctx is done.
func (s *CallbackServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping callback server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting callback server", "address", s.address)
	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
