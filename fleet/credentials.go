package fleet

import (
	"fmt"
	"strings"
)

// Credentials is the closed set of credential shapes the gateway accepts.
// Each provider declares which shape it needs through ProviderInfo.Auth, and
// adapters reject any other shape before touching the network.
type Credentials interface {
	AuthType() AuthType

	// Identifier returns a non-secret value that distinguishes accounts for
	// cache-key derivation. For key-based shapes it is a short prefix of the
	// key, never the full secret.
	Identifier() string

	validate() error
}

// SessionLogin carries username/password credentials for vendors that issue
// short-lived session tokens. AccountID is required only by vendors that
// scope logins to an account.
type SessionLogin struct {
	Email     string
	Password  string
	AccountID string
}

func (c SessionLogin) AuthType() AuthType { return AuthCredentials }

func (c SessionLogin) Identifier() string { return strings.TrimSpace(c.Email) }

func (c SessionLogin) validate() error {
	if strings.TrimSpace(c.Email) == "" || strings.TrimSpace(c.Password) == "" {
		return fmt.Errorf("%w: email and password are required", ErrMissingCredentials)
	}
	return nil
}

// APIKey carries a static vendor key. Secret is optional; only vendors with
// a key/secret pair set it.
type APIKey struct {
	Key    string
	Secret string
}

func (c APIKey) AuthType() AuthType { return AuthAPIKey }

func (c APIKey) Identifier() string { return keyPrefix(c.Key) }

func (c APIKey) validate() error {
	if strings.TrimSpace(c.Key) == "" {
		return fmt.Errorf("%w: api key is required", ErrMissingCredentials)
	}
	return nil
}

// ClientCredentials carries an OAuth2 client-credentials pair.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string
}

func (c ClientCredentials) AuthType() AuthType { return AuthOAuth2 }

func (c ClientCredentials) Identifier() string { return keyPrefix(c.ClientID) }

func (c ClientCredentials) validate() error {
	if strings.TrimSpace(c.ClientID) == "" || strings.TrimSpace(c.ClientSecret) == "" {
		return fmt.Errorf("%w: client id and client secret are required", ErrMissingCredentials)
	}
	return nil
}

// SessionLoginFrom extracts session-login credentials. Pointer shapes also
// satisfy Credentials (value receivers), so both are accepted; anything else
// is a missing-credentials failure, never a panic.
func SessionLoginFrom(creds Credentials) (SessionLogin, error) {
	switch c := creds.(type) {
	case SessionLogin:
		return c, nil
	case *SessionLogin:
		if c != nil {
			return *c, nil
		}
	}
	return SessionLogin{}, fmt.Errorf("%w: %s credentials required", ErrMissingCredentials, AuthCredentials)
}

// APIKeyFrom extracts api-key credentials, accepting value and pointer shapes.
func APIKeyFrom(creds Credentials) (APIKey, error) {
	switch c := creds.(type) {
	case APIKey:
		return c, nil
	case *APIKey:
		if c != nil {
			return *c, nil
		}
	}
	return APIKey{}, fmt.Errorf("%w: %s credentials required", ErrMissingCredentials, AuthAPIKey)
}

// ClientCredentialsFrom extracts an OAuth2 pair, accepting value and pointer
// shapes.
func ClientCredentialsFrom(creds Credentials) (ClientCredentials, error) {
	switch c := creds.(type) {
	case ClientCredentials:
		return c, nil
	case *ClientCredentials:
		if c != nil {
			return *c, nil
		}
	}
	return ClientCredentials{}, fmt.Errorf("%w: %s credentials required", ErrMissingCredentials, AuthOAuth2)
}

// CheckCredentials verifies that creds match the auth type a provider
// declares and that all required fields are present. It must be called before
// any network exchange so bad input fails fast.
func CheckCredentials(creds Credentials, want AuthType) error {
	if creds == nil {
		return fmt.Errorf("%w: credentials are required", ErrMissingCredentials)
	}
	if creds.AuthType() != want {
		return fmt.Errorf("%w: %s credentials required, got %s", ErrMissingCredentials, want, creds.AuthType())
	}
	return creds.validate()
}

// keyPrefix keeps cache keys and logs free of full secrets. Eight characters
// is enough to tell accounts apart.
func keyPrefix(key string) string {
	key = strings.TrimSpace(key)
	if len(key) > 8 {
		return key[:8]
	}
	return key
}
