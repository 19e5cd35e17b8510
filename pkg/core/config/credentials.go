package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Environment variable names for the credential bundle.
const (
	EnvPortalUsername     = "PORTAL_USERNAME"
	EnvPortalPassword     = "PORTAL_PASSWORD"
	EnvServiceAccountJSON = "GOOGLE_SERVICE_ACCOUNT_JSON"
)

// Credentials is the full secret bundle for one run, collected once at the
// entry point and threaded through explicitly.
type Credentials struct {
	PortalUsername     string
	PortalPassword     string
	ServiceAccountJSON []byte
}

// CredentialsFromEnv reads the credential bundle from the environment.
// The service account value must be the JSON key itself, not a file path.
func CredentialsFromEnv() (Credentials, error) {
	creds := Credentials{
		PortalUsername:     os.Getenv(EnvPortalUsername),
		PortalPassword:     os.Getenv(EnvPortalPassword),
		ServiceAccountJSON: []byte(os.Getenv(EnvServiceAccountJSON)),
	}

	if creds.PortalUsername == "" {
		return Credentials{}, fmt.Errorf("%s is not set", EnvPortalUsername)
	}
	if creds.PortalPassword == "" {
		return Credentials{}, fmt.Errorf("%s is not set", EnvPortalPassword)
	}
	if len(creds.ServiceAccountJSON) == 0 {
		return Credentials{}, fmt.Errorf("%s is not set", EnvServiceAccountJSON)
	}
	if !json.Valid(creds.ServiceAccountJSON) {
		return Credentials{}, fmt.Errorf("%s does not contain valid JSON", EnvServiceAccountJSON)
	}

	return creds, nil
}
