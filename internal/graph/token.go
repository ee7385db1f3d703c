// Package graph provides a minimal Microsoft Graph client for reading
// mailbox inboxes, plus the Azure AD token exchange it depends on.
package graph

import (
	"context"
	"fmt"

	"golang.org/x/oauth2/clientcredentials"
)

const (
	// DefaultScope grants app-only access to the Graph API.
	DefaultScope = "https://graph.microsoft.com/.default"

	tokenURLFormat = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"
)

// AzureCredentials holds the service principal used for app-only mail access.
type AzureCredentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

// TokenProvider exchanges service credentials for a short-lived bearer token
// scoped to the mailbox API.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// azureTokenProvider implements TokenProvider via the OAuth2
// client-credentials grant.
type azureTokenProvider struct {
	conf *clientcredentials.Config
}

// NewAzureTokenProvider creates a TokenProvider for the given credentials.
// All three credential fields are required.
func NewAzureTokenProvider(creds AzureCredentials) (TokenProvider, error) {
	if creds.TenantID == "" || creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("azure credentials not configured")
	}
	return newAzureTokenProvider(creds, fmt.Sprintf(tokenURLFormat, creds.TenantID)), nil
}

// NewAzureTokenProviderWithTokenURL creates a TokenProvider against a custom
// token endpoint. Used by tests to point at a local server.
func NewAzureTokenProviderWithTokenURL(creds AzureCredentials, tokenURL string) (TokenProvider, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("azure credentials not configured")
	}
	return newAzureTokenProvider(creds, tokenURL), nil
}

// TokenProviderFor returns the provider matching the credentials. Incomplete
// credentials yield a provider whose Token calls always fail, so every job
// run reports the misconfiguration instead of silently doing nothing.
func TokenProviderFor(creds AzureCredentials) TokenProvider {
	p, err := NewAzureTokenProvider(creds)
	if err != nil {
		return unconfiguredTokenProvider{}
	}
	return p
}

type unconfiguredTokenProvider struct{}

func (unconfiguredTokenProvider) Token(ctx context.Context) (string, error) {
	return "", fmt.Errorf("azure credentials not configured")
}

func newAzureTokenProvider(creds AzureCredentials, tokenURL string) TokenProvider {
	return &azureTokenProvider{
		conf: &clientcredentials.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			TokenURL:     tokenURL,
			Scopes:       []string{DefaultScope},
		},
	}
}

// Token acquires an access token for the Graph API
func (p *azureTokenProvider) Token(ctx context.Context) (string, error) {
	tok, err := p.conf.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to acquire access token: %w", err)
	}
	return tok.AccessToken, nil
}
