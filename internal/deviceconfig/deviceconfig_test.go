package deviceconfig

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDocument(t *testing.T) {
	tests := []struct {
		name string
		do   func(*testing.T)
	}{
		{
			name: "missing config is an error, never created",
			do: func(t *testing.T) {
				_, err := Load(filepath.Join(t.TempDir(), "config.json"))
				require.Error(t, err)
			},
		},
		{
			name: "placeholder credentials fail the precondition",
			do: func(t *testing.T) {
				doc := docWith(t, map[string]any{
					KeyClientID:     "YOUR_SPOTIFY_CLIENT_ID",
					KeyClientSecret: "YOUR_SPOTIFY_CLIENT_SECRET",
				})
				_, _, err := doc.Credentials()
				require.Error(t, err)
			},
		},
		{
			name: "empty credentials fail the precondition",
			do: func(t *testing.T) {
				doc := docWith(t, map[string]any{KeyClientID: "real-id"})
				_, _, err := doc.Credentials()
				require.Error(t, err)
			},
		},
		{
			name: "real credentials pass",
			do: func(t *testing.T) {
				doc := docWith(t, map[string]any{
					KeyClientID:     "real-id",
					KeyClientSecret: "real-secret",
				})
				id, secret, err := doc.Credentials()
				require.NoError(t, err)
				require.Equal(t, "real-id", id)
				require.Equal(t, "real-secret", secret)
			},
		},
		{
			name: "save preserves unknown keys",
			do: func(t *testing.T) {
				doc := docWith(t, map[string]any{
					"muni_api_token": "token-123",
					"stop_code":      "13915",
					"latitude":       37.76,
					KeyClientID:     "id",
				})
				doc.Set(KeyRefreshToken, "fresh-token")
				require.NoError(t, doc.Save())

				raw, err := os.ReadFile(doc.path)
				require.NoError(t, err)
				var data map[string]any
				require.NoError(t, json.Unmarshal(raw, &data))
				require.Equal(t, "token-123", data["muni_api_token"])
				require.Equal(t, "13915", data["stop_code"])
				require.Equal(t, 37.76, data["latitude"])
				require.Equal(t, "fresh-token", data[KeyRefreshToken])
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.do(t)
		})
	}
}

func TestRewriteProxyHost(t *testing.T) {
	lanLookup := func() (string, error) { return "192.168.1.20", nil }

	tests := []struct {
		name string
		do   func(*testing.T)
	}{
		{
			name: "loopback host with port is rewritten",
			do: func(t *testing.T) {
				doc := docWith(t, map[string]any{KeyImageProxy: "http://127.0.0.1:8080/resize"})
				changed, err := doc.RewriteProxyHost(lanLookup)
				require.NoError(t, err)
				require.True(t, changed)
				require.Equal(t, "http://192.168.1.20:8080/resize", doc.String(KeyImageProxy))
			},
		},
		{
			name: "localhost without port is rewritten",
			do: func(t *testing.T) {
				doc := docWith(t, map[string]any{KeyImageProxy: "http://localhost/resize"})
				changed, err := doc.RewriteProxyHost(lanLookup)
				require.NoError(t, err)
				require.True(t, changed)
				require.Equal(t, "http://192.168.1.20/resize", doc.String(KeyImageProxy))
			},
		},
		{
			name: "non-loopback host is left alone",
			do: func(t *testing.T) {
				doc := docWith(t, map[string]any{KeyImageProxy: "http://proxy.example.com:8080/resize"})
				changed, err := doc.RewriteProxyHost(lanLookup)
				require.NoError(t, err)
				require.False(t, changed)
			},
		},
		{
			name: "missing key is a no-op",
			do: func(t *testing.T) {
				doc := docWith(t, map[string]any{})
				changed, err := doc.RewriteProxyHost(lanLookup)
				require.NoError(t, err)
				require.False(t, changed)
			},
		},
		{
			name: "failed lookup surfaces as error",
			do: func(t *testing.T) {
				doc := docWith(t, map[string]any{KeyImageProxy: "http://127.0.0.1:8080/resize"})
				_, err := doc.RewriteProxyHost(func() (string, error) {
					return "", errors.New("no LAN address found")
				})
				require.Error(t, err)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.do(t)
		})
	}
}

func docWith(t *testing.T, data map[string]any) *Document {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0644))
	doc, err := Load(path)
	require.NoError(t, err)
	return doc
}
