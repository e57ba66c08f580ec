package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spirequest/spire/internal/daemon"
)

// ─── Daemon Client ──────────────────────────────────────────────────────────

type client struct {
	base  string
	token string
	http  *http.Client
}

// newClient builds an HTTP client for the configured daemon address,
// loading the saved bearer token if one exists.
func newClient(cmd *cobra.Command) (*client, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := daemon.Load(path)
	if err != nil {
		return nil, err
	}

	token, _ := os.ReadFile(tokenPath())
	return &client{
		base:  "http://" + cfg.ListenAddr(),
		token: strings.TrimSpace(string(token)),
		http:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (c *client) do(method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequest(method, c.base+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("is the daemon running? (%w)", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var e struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(raw, &e) == nil && e.Error.Message != "" {
			return fmt.Errorf("%s", e.Error.Message)
		}
		return fmt.Errorf("daemon returned %s", resp.Status)
	}
	if out != nil {
		return json.Unmarshal(raw, out)
	}
	return nil
}

// ─── Token Storage ──────────────────────────────────────────────────────────

func tokenPath() string {
	home := os.Getenv("SPIRE_HOME")
	if home == "" {
		if h, err := os.UserHomeDir(); err == nil {
			home = filepath.Join(h, ".spire")
		} else {
			home = ".spire"
		}
	}
	return filepath.Join(home, "token")
}

func saveToken(token string) error {
	path := tokenPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token), 0o600)
}

func clearToken() {
	os.Remove(tokenPath())
}
