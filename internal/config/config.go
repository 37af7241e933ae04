package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

const (
	DEFAULT_DEPLOYMENT_KEY = "deployments"
	DEFAULT_HTTP_TIMEOUT   = 30 * time.Second
)

// ErrNotConfigured marks errors caused by a required setting being absent.
var ErrNotConfigured = errors.New("gcore metadata not configured")

// MissingFieldError names the first required setting found to be unset.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "no " + e.Field + " configured"
}

// ClientConfig carries the connection settings for the metadata API.
// A nil field means the value was never supplied.
type ClientConfig struct {
	APIURL       *string
	RegionID     *int
	ProjectID    *int
	AccessToken  *string
	RefreshToken *string
	StackID      *string
	ResourceName *string

	DeploymentKeys []string
	HTTPTimeout    time.Duration
}

// Validate reports the first unset field, checked in a fixed order.
func (cfg ClientConfig) Validate(logger *log.Logger) error {
	if logger == nil {
		logger = log.Default()
	}

	required := []struct {
		name  string
		isSet bool
	}{
		{"api_url", cfg.APIURL != nil},
		{"access_token", cfg.AccessToken != nil},
		{"refresh_token", cfg.RefreshToken != nil},
		{"project_id", cfg.ProjectID != nil},
		{"region_id", cfg.RegionID != nil},
		{"stack_id", cfg.StackID != nil},
		{"resource_name", cfg.ResourceName != nil},
	}

	for _, field := range required {
		if !field.isSet {
			logger.Printf("No %s configured.", field.name)
			return errors.Mark(&MissingFieldError{Field: field.name}, ErrNotConfigured)
		}
	}
	return nil
}

// FromEnv reads the settings from GCORE_* environment variables. Variables that
// are not present stay nil so that Validate can report them.
func FromEnv() (ClientConfig, error) {
	cfg := ClientConfig{
		APIURL:         lookupString("GCORE_API_URL"),
		AccessToken:    lookupString("GCORE_ACCESS_TOKEN"),
		RefreshToken:   lookupString("GCORE_REFRESH_TOKEN"),
		StackID:        lookupString("GCORE_STACK_ID"),
		ResourceName:   lookupString("GCORE_RESOURCE_NAME"),
		DeploymentKeys: []string{DEFAULT_DEPLOYMENT_KEY},
		HTTPTimeout:    DEFAULT_HTTP_TIMEOUT,
	}

	var err error
	if cfg.ProjectID, err = lookupInt("GCORE_PROJECT_ID"); err != nil {
		return cfg, err
	}
	if cfg.RegionID, err = lookupInt("GCORE_REGION_ID"); err != nil {
		return cfg, err
	}

	if keys, ok := os.LookupEnv("DEPLOYMENT_KEY"); ok && strings.TrimSpace(keys) != "" {
		cfg.DeploymentKeys = splitKeys(keys)
	}

	if timeout, ok := os.LookupEnv("GCORE_HTTP_TIMEOUT"); ok && timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return cfg, errors.Wrapf(err, "invalid GCORE_HTTP_TIMEOUT %q", timeout)
		}
		cfg.HTTPTimeout = d
	}

	return cfg, nil
}

func lookupString(key string) *string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return nil
	}
	return &value
}

func lookupInt(key string) (*int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s %q", key, value)
	}
	return &n, nil
}

func splitKeys(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
