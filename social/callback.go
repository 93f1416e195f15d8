package social

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

const CallbackPath = "/callback"

type callbackResult struct {
	code string
	err  error
}

// Callback is a loopback HTTP listener that receives the provider's redirect.
type Callback struct {
	listener net.Listener
	server   *http.Server
	state    string
	result   chan callbackResult
}

// Listen binds addr and accepts one redirect carrying state.
func Listen(addr, state string) (*Callback, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("[social.Listen] %s: %w", addr, err)
	}

	c := &Callback{
		listener: listener,
		state:    state,
		result:   make(chan callbackResult, 1),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+CallbackPath, c.handle)
	c.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := c.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.deliver(callbackResult{err: fmt.Errorf("[Callback] serve: %w", err)})
		}
	}()
	return c, nil
}

// RedirectURL is the URL to register with the provider for this listener.
func (c *Callback) RedirectURL() string {
	return "http://" + c.listener.Addr().String() + CallbackPath
}

func (c *Callback) handle(w http.ResponseWriter, r *http.Request) {
	state := r.FormValue("state")
	code := r.FormValue("code")
	errorParam := r.FormValue("error")
	errorDesc := r.FormValue("error_description")

	// Check for authorization errors
	if errorParam != "" {
		err := fmt.Errorf("authorization failed: %s - %s", errorParam, errorDesc)
		http.Error(w, err.Error(), http.StatusBadRequest)
		c.deliver(callbackResult{err: err})
		return
	}
	if code == "" || state == "" {
		http.Error(w, "Missing code or state parameter", http.StatusBadRequest)
		return
	}
	if state != c.state {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		c.deliver(callbackResult{err: ErrStateMismatch})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintln(w, "Signed in. You can close this window and return to the terminal.")
	c.deliver(callbackResult{code: code})
}

// deliver keeps the first outcome only.
func (c *Callback) deliver(res callbackResult) {
	select {
	case c.result <- res:
	default:
	}
}

// Wait blocks until the redirect arrives or ctx is done and returns the authorization code.
func (c *Callback) Wait(ctx context.Context) (string, error) {
	select {
	case res := <-c.result:
		return res.code, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Callback) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return c.server.Shutdown(ctx)
}
