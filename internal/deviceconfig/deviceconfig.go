package deviceconfig

import (
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/nhaumann/boardsync/internal/util"
)

// Keys the tool reads or rewrites. Everything else in the document passes
// through untouched.
const (
	KeyClientID     = "spotify_client_id"
	KeyClientSecret = "spotify_client_secret"
	KeyRefreshToken = "spotify_refresh_token"
	KeyImageProxy   = "image_proxy_url"
)

const placeholderPrefix = "YOUR_"

// Document is the board's config.json. It must pre-exist; the tool patches
// individual keys and never creates it.
type Document struct {
	path string
	data map[string]any
}

func Load(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read device config '%s': %w", path, err)
	}
	data := make(map[string]any)
	if err = json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("could not parse device config '%s': %w", path, err)
	}
	return &Document{path: path, data: data}, nil
}

func (d *Document) Save() error {
	b, err := json.MarshalIndent(d.data, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode device config: %w", err)
	}
	if err = util.WriteFile(d.path, append(b, '\n')); err != nil {
		return fmt.Errorf("could not write device config '%s': %w", d.path, err)
	}
	return nil
}

func (d *Document) String(key string) string {
	if v, ok := d.data[key].(string); ok {
		return v
	}
	return ""
}

func (d *Document) Set(key string, value any) {
	d.data[key] = value
}

// IsPlaceholder reports whether a credential value counts as unset: empty or
// one of the YOUR_... sentinels shipped in the example config.
func IsPlaceholder(v string) bool {
	return v == "" || strings.HasPrefix(v, placeholderPrefix)
}

// Credentials returns the Spotify client id and secret, failing when either is
// still a placeholder.
func (d *Document) Credentials() (string, string, error) {
	id := d.String(KeyClientID)
	secret := d.String(KeyClientSecret)
	if IsPlaceholder(id) || IsPlaceholder(secret) {
		return "", "", fmt.Errorf("spotify credentials are not set in '%s'", d.path)
	}
	return id, secret, nil
}

// RewriteProxyHost replaces a loopback host in the image proxy URL with the
// address lookup returns, preserving an explicit port. Returns false when the
// key is missing or the host is not loopback; the caller persists on true.
func (d *Document) RewriteProxyHost(lookup func() (string, error)) (bool, error) {
	raw := d.String(KeyImageProxy)
	if raw == "" {
		return false, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false, fmt.Errorf("could not parse proxy URL '%s': %w", raw, err)
	}
	if !isLoopbackHost(u.Hostname()) {
		return false, nil
	}
	addr, err := lookup()
	if err != nil {
		return false, err
	}
	if port := u.Port(); port != "" {
		u.Host = net.JoinHostPort(addr, port)
	} else {
		u.Host = addr
	}
	d.Set(KeyImageProxy, u.String())
	return true, nil
}

func isLoopbackHost(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
