package googlesheets

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// testKeyPEM generates a throwaway RSA key so tokens can really be signed
func testKeyPEM(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("MarshalPKCS8PrivateKey() error = %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}

func serviceAccountJSON(t *testing.T, tokenURI string) []byte {
	t.Helper()
	data, err := json.Marshal(map[string]string{
		"type":           "service_account",
		"project_id":     "sync-project",
		"private_key_id": "key-1",
		"private_key":    testKeyPEM(t),
		"client_email":   "sync@sync-project.iam.gserviceaccount.com",
		"token_uri":      tokenURI,
	})
	if err != nil {
		t.Fatal(err)
	}
	return data
}

// tokenServer answers every token request with access token "tok-1"
func tokenServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if err := r.ParseForm(); err != nil || r.Form.Get("assertion") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token": "tok-1", "token_type": "Bearer", "expires_in": 3600}`))
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestParseServiceAccountJSON(t *testing.T) {
	tests := []struct {
		name   string
		json   string
		errMsg string
	}{
		{
			name: "valid",
			json: `{"type": "service_account", "client_email": "a@b.iam.gserviceaccount.com",
				"private_key": "pem", "token_uri": "https://oauth2.googleapis.com/token"}`,
		},
		{name: "user credentials", json: `{"type": "authorized_user", "client_email": "a@b", "private_key": "k"}`, errMsg: "invalid key type"},
		{name: "missing email", json: `{"type": "service_account", "private_key": "k"}`, errMsg: "missing required fields"},
		{name: "missing key", json: `{"type": "service_account", "client_email": "a@b"}`, errMsg: "missing required fields"},
		{name: "malformed", json: `{oops}`, errMsg: "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := ParseServiceAccountJSON([]byte(tt.json))
			if tt.errMsg != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("ParseServiceAccountJSON() error = %v, want %q", err, tt.errMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseServiceAccountJSON() error = %v", err)
			}
			if key.ClientEmail != "a@b.iam.gserviceaccount.com" || key.TokenURI != "https://oauth2.googleapis.com/token" {
				t.Errorf("ParseServiceAccountJSON() = %+v", key)
			}
		})
	}
}

func TestServiceAccountKey_JWTConfig(t *testing.T) {
	key := &ServiceAccountKey{ClientEmail: "a@b", PrivateKey: "pem", PrivateKeyID: "k1"}
	cfg := key.jwtConfig()
	if cfg.TokenURL != google.JWTTokenURL {
		t.Errorf("TokenURL = %q, want default %q", cfg.TokenURL, google.JWTTokenURL)
	}
	if len(cfg.Scopes) != 1 || cfg.Scopes[0] != readOnlyScopes[0] {
		t.Errorf("Scopes = %v, want read-only", cfg.Scopes)
	}
	if cfg.PrivateKeyID != "k1" {
		t.Errorf("PrivateKeyID = %q", cfg.PrivateKeyID)
	}

	key.TokenURI = "https://token.example/"
	if got := key.jwtConfig().TokenURL; got != "https://token.example/" {
		t.Errorf("TokenURL = %q, want the key's token_uri", got)
	}
}

func TestCreateTokenSource(t *testing.T) {
	server, calls := tokenServer(t)
	data := serviceAccountJSON(t, server.URL)

	path := filepath.Join(t.TempDir(), "key.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	parsed, err := ParseServiceAccountJSON(data)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	for name, creds := range map[string]interface{}{
		"file path":  path,
		"json data":  data,
		"parsed key": parsed,
	} {
		t.Run(name, func(t *testing.T) {
			ts, err := CreateTokenSource(ctx, creds)
			if err != nil {
				t.Fatalf("CreateTokenSource() error = %v", err)
			}
			tok, err := ts.Token()
			if err != nil {
				t.Fatalf("Token() error = %v", err)
			}
			if tok.AccessToken != "tok-1" {
				t.Errorf("AccessToken = %q, want tok-1", tok.AccessToken)
			}
		})
	}
	if *calls != 3 {
		t.Errorf("token endpoint called %d times, want 3", *calls)
	}

	static := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "static"})
	if ts, err := CreateTokenSource(ctx, static); err != nil || ts != static {
		t.Errorf("CreateTokenSource(TokenSource) = %v, %v; want passthrough", ts, err)
	}

	if _, err := CreateTokenSource(ctx, 42); err == nil || !strings.Contains(err.Error(), "unsupported credential type") {
		t.Errorf("CreateTokenSource(int) error = %v", err)
	}
	if _, err := CreateTokenSource(ctx, filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("CreateTokenSource(missing) error = %v, want ErrNotExist", err)
	}
	if _, err := CreateTokenSource(ctx, []byte(`{"type": "mystery"}`)); err == nil {
		t.Error("CreateTokenSource(unknown type) should fail")
	}
}

func TestNewWithJSONKeyFile(t *testing.T) {
	server, _ := tokenServer(t)
	path := filepath.Join(t.TempDir(), "key.json")
	if err := os.WriteFile(path, serviceAccountJSON(t, server.URL), 0o600); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	config := Config{SpreadsheetID: "test-id"}

	t.Run("explicit path", func(t *testing.T) {
		t.Setenv(envCredentials, "")
		if _, err := NewWithJSONKeyFile(ctx, config, path); err != nil {
			t.Errorf("NewWithJSONKeyFile() error = %v", err)
		}
	})

	t.Run("env fallback", func(t *testing.T) {
		t.Setenv(envCredentials, path)
		if _, err := NewWithJSONKeyFile(ctx, config, ""); err != nil {
			t.Errorf("NewWithJSONKeyFile() error = %v", err)
		}
	})

	t.Run("nothing given", func(t *testing.T) {
		t.Setenv(envCredentials, "")
		if _, err := NewWithJSONKeyFile(ctx, config, ""); !errors.Is(err, ErrNoCredentials) {
			t.Errorf("NewWithJSONKeyFile() error = %v, want ErrNoCredentials", err)
		}
	})

	t.Run("missing spreadsheet id", func(t *testing.T) {
		if _, err := NewWithJSONKeyFile(ctx, Config{}, path); err == nil {
			t.Error("NewWithJSONKeyFile() without spreadsheet ID should fail")
		}
	})
}

func TestNewWithServiceAccountKey(t *testing.T) {
	ctx := context.Background()
	if _, err := NewWithServiceAccountKey(ctx, Config{SpreadsheetID: "test-id"}, "a@b", testKeyPEM(t)); err != nil {
		t.Errorf("NewWithServiceAccountKey() error = %v", err)
	}
	if _, err := NewWithJSONKeyData(ctx, Config{SpreadsheetID: "test-id"}, []byte(`{oops}`)); err == nil {
		t.Error("NewWithJSONKeyData(malformed) should fail")
	}
}
