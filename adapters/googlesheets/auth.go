package googlesheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const envCredentials = "GOOGLE_APPLICATION_CREDENTIALS"

// readOnlyScopes are all a source asks for; it never writes to a spreadsheet
var readOnlyScopes = []string{sheets.SpreadsheetsReadonlyScope}

// ErrNoCredentials is returned when neither a key file nor
// GOOGLE_APPLICATION_CREDENTIALS is given
var ErrNoCredentials = errors.New("no key file given and " + envCredentials + " not set")

// ServiceAccountKey holds the fields of a service account key file the
// source needs to sign its own tokens
type ServiceAccountKey struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	TokenURI     string `json:"token_uri"`
}

func (k *ServiceAccountKey) jwtConfig() *jwt.Config {
	tokenURL := k.TokenURI
	if tokenURL == "" {
		tokenURL = google.JWTTokenURL
	}
	return &jwt.Config{
		Email:        k.ClientEmail,
		PrivateKey:   []byte(k.PrivateKey),
		PrivateKeyID: k.PrivateKeyID,
		Scopes:       readOnlyScopes,
		TokenURL:     tokenURL,
	}
}

// ParseServiceAccountJSON decodes and checks a service account key
func ParseServiceAccountJSON(jsonData []byte) (*ServiceAccountKey, error) {
	var key ServiceAccountKey
	if err := json.Unmarshal(jsonData, &key); err != nil {
		return nil, fmt.Errorf("failed to parse service account JSON: %w", err)
	}
	if key.Type != "service_account" {
		return nil, fmt.Errorf("invalid key type: %s (expected: service_account)", key.Type)
	}
	if key.ClientEmail == "" || key.PrivateKey == "" {
		return nil, fmt.Errorf("missing required fields in service account key")
	}
	return &key, nil
}

// NewWithJSONKeyFile creates a Source from a credentials file. An empty
// path falls back to GOOGLE_APPLICATION_CREDENTIALS.
func NewWithJSONKeyFile(ctx context.Context, config Config, jsonPath string) (*Source, error) {
	if jsonPath == "" {
		jsonPath = os.Getenv(envCredentials)
	}
	if jsonPath == "" {
		return nil, ErrNoCredentials
	}
	return NewWithCredentials(ctx, config, jsonPath)
}

// NewWithJSONKeyData creates a Source from the contents of a credentials file
func NewWithJSONKeyData(ctx context.Context, config Config, jsonData []byte) (*Source, error) {
	return NewWithCredentials(ctx, config, jsonData)
}

// NewWithServiceAccountKey creates a Source from a service account's email and PEM key
func NewWithServiceAccountKey(ctx context.Context, config Config, email string, privateKey string) (*Source, error) {
	return NewWithCredentials(ctx, config, &ServiceAccountKey{
		Type:        "service_account",
		ClientEmail: email,
		PrivateKey:  privateKey,
	})
}

// NewWithDefaultCredentials creates a Source using Application Default
// Credentials: GOOGLE_APPLICATION_CREDENTIALS, gcloud's application-default
// login, then the GCE metadata server.
func NewWithDefaultCredentials(ctx context.Context, config Config) (*Source, error) {
	creds, err := google.FindDefaultCredentials(ctx, readOnlyScopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to find default credentials: %w", err)
	}
	return NewSource(ctx, config, option.WithTokenSource(creds.TokenSource))
}

// NewWithCredentials creates a Source from anything CreateTokenSource accepts
func NewWithCredentials(ctx context.Context, config Config, credentials interface{}) (*Source, error) {
	tokens, err := CreateTokenSource(ctx, credentials)
	if err != nil {
		return nil, err
	}
	return NewSource(ctx, config, option.WithTokenSource(oauth2.ReuseTokenSource(nil, tokens)))
}

// CreateTokenSource turns a key file path (string), key file contents
// ([]byte), a *ServiceAccountKey or an existing oauth2.TokenSource into a
// read-only token source.
func CreateTokenSource(ctx context.Context, credentials interface{}) (oauth2.TokenSource, error) {
	switch cred := credentials.(type) {
	case string:
		jsonData, err := os.ReadFile(cred)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		return tokenSourceFromJSON(ctx, jsonData)
	case []byte:
		return tokenSourceFromJSON(ctx, cred)
	case *ServiceAccountKey:
		return cred.jwtConfig().TokenSource(ctx), nil
	case oauth2.TokenSource:
		return cred, nil
	default:
		return nil, fmt.Errorf("unsupported credential type: %T", credentials)
	}
}

func tokenSourceFromJSON(ctx context.Context, jsonData []byte) (oauth2.TokenSource, error) {
	creds, err := google.CredentialsFromJSON(ctx, jsonData, readOnlyScopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	return creds.TokenSource, nil
}
