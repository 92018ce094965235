package httpclient

import (
	"encoding/base64"
	"net/url"
)

// AuthType identifies the authentication method.
type AuthType int

const (
	// AuthNone disables authentication.
	AuthNone AuthType = iota
	// AuthBearer uses Bearer token authentication.
	AuthBearer
	// AuthBasic uses HTTP Basic authentication.
	AuthBasic
	// AuthAPIKey uses API key authentication (header or query parameter).
	AuthAPIKey
	// AuthCustom uses a custom authentication function.
	AuthCustom
)

// AuthConfig configures request authentication.
type AuthConfig struct {
	Type     AuthType
	Token    string
	Username string
	Password string
	// Key is the API key value (AuthAPIKey).
	Key string
	// In is "header" (default) or "query" (AuthAPIKey).
	In string
	// Name is the header or query parameter name. Defaults to "X-API-Key".
	Name string
	// Apply modifies the outbound request (AuthCustom).
	Apply func(*Request)
}

// BearerAuth creates a bearer token auth config.
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Type: AuthBearer, Token: token}
}

// BasicAuth creates a basic auth config.
func BasicAuth(username, password string) *AuthConfig {
	return &AuthConfig{Type: AuthBasic, Username: username, Password: password}
}

// APIKeyAuthHeader creates an API key auth config sent in the named header.
func APIKeyAuthHeader(key, headerName string) *AuthConfig {
	return &AuthConfig{Type: AuthAPIKey, Key: key, In: "header", Name: headerName}
}

// APIKeyAuthQuery creates an API key auth config sent as a query parameter.
func APIKeyAuthQuery(key, paramName string) *AuthConfig {
	return &AuthConfig{Type: AuthAPIKey, Key: key, In: "query", Name: paramName}
}

// CustomAuth creates a custom auth config with a request modifier function.
func CustomAuth(fn func(*Request)) *AuthConfig {
	return &AuthConfig{Type: AuthCustom, Apply: fn}
}

// apply mutates req, which must already own its Headers map.
func (a *AuthConfig) apply(req *Request) error {
	if a == nil {
		return nil
	}
	switch a.Type {
	case AuthBearer:
		req.Headers["Authorization"] = "Bearer " + a.Token
	case AuthBasic:
		creds := base64.StdEncoding.EncodeToString([]byte(a.Username + ":" + a.Password))
		req.Headers["Authorization"] = "Basic " + creds
	case AuthAPIKey:
		name := a.Name
		if name == "" {
			name = "X-API-Key"
		}
		if a.In != "query" {
			req.Headers[name] = a.Key
			return nil
		}
		u, err := url.Parse(req.URL)
		if err != nil {
			return err
		}
		q := u.Query()
		q.Set(name, a.Key)
		u.RawQuery = q.Encode()
		req.URL = u.String()
	case AuthCustom:
		if a.Apply != nil {
			a.Apply(req)
		}
	}
	return nil
}
