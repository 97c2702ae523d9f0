package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"
)

const (
	callbackAddr = "localhost:8080"
	loginTimeout = 5 * time.Minute
)

// OAuth2Config holds OAuth2 login configuration.
type OAuth2Config struct {
	ClientID     string
	ClientSecret string
	TokenFile    string // where the token is saved
}

func oauthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  "http://" + callbackAddr + "/callback",
		Scopes:       []string{sheets.SpreadsheetsReadonlyScope},
	}
}

// Login runs the browser OAuth2 flow and saves the token to config.TokenFile.
// The authorization URL is passed to show so the caller can print it.
func Login(ctx context.Context, config OAuth2Config, show func(url string)) (*oauth2.Token, error) {
	oc := oauthConfig(config.ClientID, config.ClientSecret)

	listener, err := net.Listen("tcp", callbackAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			errChan <- errors.New("no authorization code received")
			_, _ = fmt.Fprint(w, "Authentication failed. Please try again.")
			return
		}
		codeChan <- code
		_, _ = fmt.Fprint(w, "Authentication successful. You can close this window.")
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("callback server failed: %w", err)
		}
	}()
	defer func() {
		if err := server.Shutdown(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("Error shutting down callback server", "error", err)
		}
	}()

	show(oc.AuthCodeURL("mandant-login", oauth2.AccessTypeOffline, oauth2.ApprovalForce))

	var code string
	select {
	case code = <-codeChan:
	case err := <-errChan:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(loginTimeout):
		return nil, fmt.Errorf("authentication timeout: no response within %s", loginTimeout)
	}

	token, err := oc.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if config.TokenFile != "" {
		if err := saveToken(config.TokenFile, token); err != nil {
			return nil, err
		}
		slog.Info("Token saved", "file", config.TokenFile)
	}
	return token, nil
}

// LoadToken loads a token saved by Login.
func LoadToken(tokenFile string) (*oauth2.Token, error) {
	f, err := os.Open(tokenFile) // #nosec G304
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return token, nil
}

func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return nil
}
