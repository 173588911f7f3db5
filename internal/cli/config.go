package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds CLI configuration
type Config struct {
	ServerURL       string
	UserID          string
	Secret          string
	CredentialsFile string
	Output          string
}

// Credentials are persisted after registration or login
type Credentials struct {
	UserID string `json:"user_id"`
	Secret string `json:"secret"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:       getEnvOrDefault("SHOPCTL_SERVER", "http://localhost:8080"),
		UserID:          os.Getenv("SHOPCTL_USER_ID"),
		Secret:          os.Getenv("SHOPCTL_SECRET"),
		CredentialsFile: getEnvOrDefault("SHOPCTL_CREDENTIALS_FILE", defaultCredentialsFile()),
		Output:          "text",
	}
}

// LoadCredentials fills user id and secret from file where not already set
func (c *Config) LoadCredentials() error {
	if c.UserID != "" && c.Secret != "" {
		return nil
	}

	data, err := os.ReadFile(c.CredentialsFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil // No credentials file is fine
		}
		return err
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return fmt.Errorf("parse credentials file: %w", err)
	}
	if c.UserID == "" {
		c.UserID = creds.UserID
	}
	if c.Secret == "" {
		c.Secret = creds.Secret
	}
	return nil
}

// SaveCredentials writes user id and secret to the credentials file, readable only by the owner
func (c *Config) SaveCredentials(userID, secret string) error {
	c.UserID = userID
	c.Secret = secret

	dir := filepath.Dir(c.CredentialsFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.Marshal(Credentials{UserID: userID, Secret: secret})
	if err != nil {
		return err
	}
	return os.WriteFile(c.CredentialsFile, data, 0600)
}

// RequireCredentials fails when no user id or secret is known
func (c *Config) RequireCredentials() error {
	if c.UserID == "" || c.Secret == "" {
		return errors.New("no credentials: run 'shopctl account create' or 'shopctl account login', or pass --user-id and --secret")
	}
	return nil
}

func defaultCredentialsFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".shopctl/credentials.json"
	}
	return filepath.Join(home, ".shopctl", "credentials.json")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
