package config

import (
	"bytes"
	"log"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func validConfig() ClientConfig {
	return ClientConfig{
		APIURL:       ptr("http://192.0.2.1:5000"),
		AccessToken:  ptr("0123456789ABCDEF"),
		RefreshToken: ptr("FEDCBA9876543210"),
		ProjectID:    ptr(1),
		RegionID:     ptr(1),
		StackID:      ptr("a/c482680f-7238-403d-8f76-36acf0c8e0aa"),
		ResourceName: ptr("server"),
	}
}

func TestValidate(t *testing.T) {
	t.Run("All fields set", func(t *testing.T) {
		var buf bytes.Buffer
		err := validConfig().Validate(log.New(&buf, "", 0))
		require.NoError(t, err)
		assert.Empty(t, buf.String())
	})

	missing := map[string]func(*ClientConfig){
		"api_url":       func(c *ClientConfig) { c.APIURL = nil },
		"access_token":  func(c *ClientConfig) { c.AccessToken = nil },
		"refresh_token": func(c *ClientConfig) { c.RefreshToken = nil },
		"project_id":    func(c *ClientConfig) { c.ProjectID = nil },
		"region_id":     func(c *ClientConfig) { c.RegionID = nil },
		"stack_id":      func(c *ClientConfig) { c.StackID = nil },
		"resource_name": func(c *ClientConfig) { c.ResourceName = nil },
	}

	for field, unset := range missing {
		t.Run("Missing "+field, func(t *testing.T) {
			cfg := validConfig()
			unset(&cfg)

			var buf bytes.Buffer
			err := cfg.Validate(log.New(&buf, "", 0))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNotConfigured))

			var mfe *MissingFieldError
			require.True(t, errors.As(err, &mfe))
			assert.Equal(t, field, mfe.Field)
			assert.Equal(t, "No "+field+" configured.\n", buf.String())
		})
	}

	t.Run("First missing field wins", func(t *testing.T) {
		cfg := validConfig()
		cfg.StackID = nil
		cfg.AccessToken = nil

		var buf bytes.Buffer
		err := cfg.Validate(log.New(&buf, "", 0))

		var mfe *MissingFieldError
		require.True(t, errors.As(err, &mfe))
		assert.Equal(t, "access_token", mfe.Field)
		assert.NotContains(t, buf.String(), "stack_id")
	})
}

func TestFromEnv(t *testing.T) {
	t.Run("Reads all variables", func(t *testing.T) {
		t.Setenv("GCORE_API_URL", "http://192.0.2.1:5000")
		t.Setenv("GCORE_ACCESS_TOKEN", "access")
		t.Setenv("GCORE_REFRESH_TOKEN", "refresh")
		t.Setenv("GCORE_PROJECT_ID", "12")
		t.Setenv("GCORE_REGION_ID", "34")
		t.Setenv("GCORE_STACK_ID", "stack")
		t.Setenv("GCORE_RESOURCE_NAME", "server")
		t.Setenv("DEPLOYMENT_KEY", "deployments, extra")
		t.Setenv("GCORE_HTTP_TIMEOUT", "5s")

		cfg, err := FromEnv()
		require.NoError(t, err)
		require.NoError(t, cfg.Validate(nil))

		assert.Equal(t, "http://192.0.2.1:5000", *cfg.APIURL)
		assert.Equal(t, 12, *cfg.ProjectID)
		assert.Equal(t, 34, *cfg.RegionID)
		assert.Equal(t, []string{"deployments", "extra"}, cfg.DeploymentKeys)
		assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	})

	t.Run("Unset variables stay nil", func(t *testing.T) {
		t.Setenv("GCORE_API_URL", "")
		t.Setenv("GCORE_REGION_ID", "")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Nil(t, cfg.APIURL)
		assert.Nil(t, cfg.RegionID)
		assert.Equal(t, []string{DEFAULT_DEPLOYMENT_KEY}, cfg.DeploymentKeys)
		assert.Equal(t, DEFAULT_HTTP_TIMEOUT, cfg.HTTPTimeout)
	})

	t.Run("Invalid project id", func(t *testing.T) {
		t.Setenv("GCORE_PROJECT_ID", "abc")

		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "GCORE_PROJECT_ID")
	})
}
