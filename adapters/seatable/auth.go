package seatable

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// App access tokens are valid for three days; refresh well before that.
const accessTokenLifetime = 72*time.Hour - 5*time.Minute

const (
	extraDTableUUID   = "dtable_uuid"
	extraDTableServer = "dtable_server"
)

// appAccess is the response of the app-access-token endpoint
type appAccess struct {
	AppName      string `json:"app_name"`
	AccessToken  string `json:"access_token"`
	DTableUUID   string `json:"dtable_uuid"`
	DTableServer string `json:"dtable_server"`
	DTableName   string `json:"dtable_name"`
}

// accessTokenSource exchanges a base API token for an app access token.
// The base UUID and dtable server ride along as token extras. It is built
// per call so the exchange runs under the caller's context.
type accessTokenSource struct {
	ctx        context.Context
	client     *http.Client
	serverURL  string
	apiToken   string
	maxRetries int
}

// Token implements oauth2.TokenSource
func (s *accessTokenSource) Token() (*oauth2.Token, error) {
	endpoint := strings.TrimRight(s.serverURL, "/") + "/api/v2.1/dtable/app-access-token/"
	apiToken := &oauth2.Token{AccessToken: s.apiToken, TokenType: "Token"}

	var access appAccess
	if err := getJSON(s.ctx, s.client, endpoint, apiToken, s.maxRetries, &access); err != nil {
		return nil, fmt.Errorf("failed to get app access token: %w", err)
	}
	if access.AccessToken == "" || access.DTableUUID == "" || access.DTableServer == "" {
		return nil, fmt.Errorf("incomplete app access token response from %s", endpoint)
	}

	token := &oauth2.Token{
		AccessToken: access.AccessToken,
		TokenType:   "Token",
		Expiry:      time.Now().Add(accessTokenLifetime),
	}
	return token.WithExtra(map[string]interface{}{
		extraDTableUUID:   access.DTableUUID,
		extraDTableServer: access.DTableServer,
	}), nil
}

// accessToken returns the cached app access token, exchanging the API
// token under ctx once it is missing or expired
func (s *Source) accessToken(ctx context.Context) (*oauth2.Token, error) {
	s.tokenMu.Lock()
	defer s.tokenMu.Unlock()

	token, err := oauth2.ReuseTokenSource(s.token, &accessTokenSource{
		ctx:        ctx,
		client:     s.http,
		serverURL:  s.config.ServerURL,
		apiToken:   s.config.APIToken,
		maxRetries: s.config.MaxRetries,
	}).Token()
	if err != nil {
		return nil, err
	}
	s.token = token
	return token, nil
}

// baseEndpoint returns the dtable server API root for the token's base
func baseEndpoint(token *oauth2.Token) (string, error) {
	server, _ := token.Extra(extraDTableServer).(string)
	uuid, _ := token.Extra(extraDTableUUID).(string)
	if server == "" || uuid == "" {
		return "", fmt.Errorf("access token carries no base location")
	}
	return fmt.Sprintf("%s/api/v1/dtables/%s", strings.TrimRight(server, "/"), uuid), nil
}
