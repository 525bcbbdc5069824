// Package profile loads connection profiles: JSON files pairing a provider
// with its credentials, used by the CLI so secrets stay out of argv.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/driveloop/fleetlink/fleet"
)

// Profile is one stored vendor connection. Only the credential fields for the
// provider's auth type need to be set.
type Profile struct {
	Provider     string `json:"provider"`
	BaseURL      string `json:"baseUrl,omitempty"`
	Email        string `json:"email,omitempty"`
	Password     string `json:"password,omitempty"`
	AccountID    string `json:"accountId,omitempty"`
	APIKey       string `json:"apiKey,omitempty"`
	APISecret    string `json:"apiSecret,omitempty"`
	ClientID     string `json:"clientId,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty"`
}

func Load(path string) (Profile, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Profile{}, fmt.Errorf("profile path is required")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to resolve profile path: %w", err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to read profile %q: %w", absPath, err)
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("failed to decode profile %q as JSON: %w", absPath, err)
	}

	p.Provider = strings.ToLower(strings.TrimSpace(p.Provider))
	if p.Provider == "" {
		return Profile{}, fmt.Errorf("profile %q has no provider", absPath)
	}
	return p, nil
}

// Credentials assembles the credential shape the provider's declared auth
// type expects. Field presence is validated later by the adapter.
func (p Profile) Credentials(auth fleet.AuthType) fleet.Credentials {
	switch auth {
	case fleet.AuthCredentials:
		return fleet.SessionLogin{Email: p.Email, Password: p.Password, AccountID: p.AccountID}
	case fleet.AuthAPIKey:
		return fleet.APIKey{Key: p.APIKey, Secret: p.APISecret}
	case fleet.AuthOAuth2:
		return fleet.ClientCredentials{ClientID: p.ClientID, ClientSecret: p.ClientSecret}
	default:
		return nil
	}
}
