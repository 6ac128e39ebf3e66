package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment variable names
const (
	EnvServerURL         = "SEATABLE_SERVER_URL"
	EnvDefaultAPIToken   = "DEFAULT_SEATABLE_API_TOKEN"
	EnvGoogleCredentials = "GOOGLE_APPLICATION_CREDENTIALS"
	apiTokenSuffix       = "_SEATABLE_API_TOKEN"
)

const defaultGoogleHeaderRow = 1

// Credentials are the secrets and endpoints a batch needs at run time
type Credentials struct {
	ServerURL       string
	APIToken        string
	CredentialsFile string
}

// LoadEnvFiles loads .env.local then .env from dir. Variables already set
// win over both, and .env.local wins over .env.
func LoadEnvFiles(dir string) []string {
	var loaded []string
	for _, name := range []string{".env.local", ".env"} {
		path := filepath.Join(dir, name)
		if err := godotenv.Load(path); err == nil {
			loaded = append(loaded, path)
		}
	}
	return loaded
}

// NewViper returns a viper instance reading the variables a batch needs
// from the environment.
func NewViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	for _, key := range []string{EnvServerURL, EnvDefaultAPIToken, EnvGoogleCredentials} {
		_ = v.BindEnv(key)
	}
	return v
}

// TokenEnvName is the batch specific API token variable, e.g.
// MEMO_ANA2025_SEATABLE_API_TOKEN for memo-ana2025.json.
func TokenEnvName(batchName string) string {
	return strings.ToUpper(strings.ReplaceAll(batchName, "-", "_")) + apiTokenSuffix
}

// Credentials resolves the source's endpoint and secrets for b. The file's
// server_url and credentials_file win over the environment; the API token
// only ever comes from the environment.
func (b *Batch) Credentials(v *viper.Viper) (Credentials, error) {
	switch b.Source.Type {
	case SourceSeaTable:
		creds := Credentials{
			ServerURL: b.Source.ServerURL,
			APIToken:  v.GetString(TokenEnvName(b.Name())),
		}
		if creds.ServerURL == "" {
			creds.ServerURL = v.GetString(EnvServerURL)
		}
		if creds.APIToken == "" {
			creds.APIToken = v.GetString(EnvDefaultAPIToken)
		}
		if creds.ServerURL == "" {
			return creds, fmt.Errorf("SeaTable server URL missing: set source.server_url or %s", EnvServerURL)
		}
		if creds.APIToken == "" {
			return creds, fmt.Errorf("SeaTable API token missing: set %s or %s", TokenEnvName(b.Name()), EnvDefaultAPIToken)
		}
		return creds, nil

	case SourceGoogleSheets:
		creds := Credentials{CredentialsFile: b.Source.CredentialsFile}
		if creds.CredentialsFile == "" {
			creds.CredentialsFile = v.GetString(EnvGoogleCredentials)
		}
		if creds.CredentialsFile != "" && !filepath.IsAbs(creds.CredentialsFile) && b.Path != "" {
			creds.CredentialsFile = filepath.Join(filepath.Dir(b.Path), creds.CredentialsFile)
		}
		// empty means application default credentials
		return creds, nil

	default:
		return Credentials{}, fmt.Errorf("unknown source type %q", b.Source.Type)
	}
}

// GoogleHeaderRow is the row holding field names in every tab
func (b *Batch) GoogleHeaderRow() int {
	if b.Source.HeaderRow > 0 {
		return b.Source.HeaderRow
	}
	return defaultGoogleHeaderRow
}
