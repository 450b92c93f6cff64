package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"

	"github.com/nhaumann/boardsync/internal/logging"
)

func startCallbackServer(ctx context.Context, redirect *url.URL, state string) (<-chan string, error) {
	codeCh := make(chan string)

	listener, err := net.Listen("tcp", net.JoinHostPort(redirect.Hostname(), redirect.Port()))
	if err != nil {
		return nil, fmt.Errorf("could not create listener: %w", err)
	}

	mux := http.NewServeMux()
	srv := &http.Server{Handler: mux}

	mux.HandleFunc(redirect.Path, func(w http.ResponseWriter, r *http.Request) {
		defer close(codeCh)
		defer func() { go func() { _ = srv.Shutdown(ctx) }() }()
		if errMsg := r.FormValue("error"); errMsg != "" {
			http.Error(w, errMsg, http.StatusBadRequest)
			return
		}
		if r.FormValue("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		code := r.FormValue("code")
		w.WriteHeader(http.StatusOK)
		if _, err := fmt.Fprintln(w, "Spotify auth complete. You can close this window."); err != nil {
			logging.Infof("Could not write response to client: %s", err)
		}
		codeCh <- code
	})

	go func() {
		if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			logging.Error("OAuth callback server failed", err)
		}
	}()

	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	return codeCh, nil
}

func waitForAuthCode(ctx context.Context, codeCh <-chan string) (string, error) {
	logging.Info("Waiting for Spotify to redirect back...")
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case code := <-codeCh:
		if code == "" {
			return "", fmt.Errorf("no authorization code received")
		}
		return code, nil
	}
}

func openBrowser(url string) {
	var err error

	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		fmt.Printf("Please open the following URL manually: %s\n", url)
	}

	if err != nil {
		fmt.Printf("Failed to open browser automatically: %v\n", err)
		fmt.Printf("Visit this URL manually: %s\n", url)
	}
}
