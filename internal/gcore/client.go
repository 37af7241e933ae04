package gcore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"

	"github.com/rm-hull/heat-metadata-collector/internal/config"
	"github.com/rm-hull/heat-metadata-collector/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MetadataFetcher retrieves the metadata document attached to a stack resource.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context) (any, error)
}

// ResourceClient talks to the metadata API for a single Heat stack resource.
// It owns its token pair and replaces it in place whenever a refresh succeeds.
type ResourceClient struct {
	apiURL       string
	regionId     int
	projectId    int
	stackId      string
	resourceName string
	tokens       models.TokenPair
	client       *http.Client
	timeout      *time.Duration
	logger       *log.Logger
}

type Option func(*ResourceClient)

func WithHTTPClient(client *http.Client) Option {
	return func(rc *ResourceClient) {
		rc.client = client
	}
}

// WithTimeout sets the per-request timeout. A client passed through
// WithHTTPClient is copied rather than modified.
func WithTimeout(timeout time.Duration) Option {
	return func(rc *ResourceClient) {
		rc.timeout = &timeout
	}
}

func WithClientLogger(logger *log.Logger) Option {
	return func(rc *ResourceClient) {
		rc.logger = logger
	}
}

// fetchResult is the outcome of a single GET that reached the server.
type fetchResult struct {
	statusCode int
	status     string
	body       []byte
}

func (r *fetchResult) unauthorized() bool {
	return r.statusCode == http.StatusUnauthorized
}

func (r *fetchResult) ok() bool {
	return r.statusCode >= 200 && r.statusCode <= 299
}

func NewResourceClient(cfg config.ClientConfig, opts ...Option) (*ResourceClient, error) {
	if err := cfg.Validate(log.New(io.Discard, "", 0)); err != nil {
		return nil, errors.Wrap(err, "incomplete client configuration")
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = config.DEFAULT_HTTP_TIMEOUT
	}

	rc := &ResourceClient{
		apiURL:       *cfg.APIURL,
		regionId:     *cfg.RegionID,
		projectId:    *cfg.ProjectID,
		stackId:      *cfg.StackID,
		resourceName: *cfg.ResourceName,
		tokens: models.TokenPair{
			AccessToken:  *cfg.AccessToken,
			RefreshToken: *cfg.RefreshToken,
		},
		logger: log.Default(),
	}

	for _, opt := range opts {
		opt(rc)
	}

	switch {
	case rc.client == nil && rc.timeout != nil:
		rc.client = &http.Client{Timeout: *rc.timeout}
	case rc.client == nil:
		rc.client = &http.Client{Timeout: timeout}
	case rc.timeout != nil:
		copied := *rc.client
		copied.Timeout = *rc.timeout
		rc.client = &copied
	}
	return rc, nil
}

func (rc *ResourceClient) APIURL() string {
	return rc.apiURL
}

func (rc *ResourceClient) RefreshURL() string {
	return fmt.Sprintf("%s/v1/token/refresh", rc.apiURL)
}

func (rc *ResourceClient) MetadataURL() string {
	return fmt.Sprintf("%s/v1/%d/%d/heat/%s/resources/%s/metadata",
		rc.apiURL, rc.projectId, rc.regionId, rc.stackId, rc.resourceName)
}

// Tokens returns a copy of the current token pair.
func (rc *ResourceClient) Tokens() models.TokenPair {
	return rc.tokens
}

// FetchMetadata GETs the resource metadata. A 401 triggers exactly one token
// refresh followed by one more GET; whatever that second GET returns is final.
func (rc *ResourceClient) FetchMetadata(ctx context.Context) (any, error) {
	url := rc.MetadataURL()

	result, err := rc.attempt(ctx, url)
	if err != nil {
		return nil, err
	}

	if result.unauthorized() {
		rc.logger.Printf("access token rejected by %s, refreshing...", url)
		if err := rc.Refresh(ctx); err != nil {
			return nil, errors.Wrap(err, "failed to refresh token")
		}
		if result, err = rc.attempt(ctx, url); err != nil {
			return nil, err
		}
	}

	if !result.ok() {
		return nil, &HTTPStatusError{URL: url, Status: result.status, StatusCode: result.statusCode}
	}

	var doc any
	if err := json.Unmarshal(result.body, &doc); err != nil {
		return nil, &DecodeError{URL: url, Err: err}
	}
	return doc, nil
}

// Refresh exchanges the refresh token for a new token pair. The stored pair is
// only replaced once the response has been fully validated.
func (rc *ResourceClient) Refresh(ctx context.Context) error {
	url := rc.RefreshURL()
	body, err := rc.post(ctx, url, models.TokenRefreshRequest{Token: rc.tokens.RefreshToken})
	if err != nil {
		return err
	}
	defer func() {
		if err := body.Close(); err != nil {
			rc.logger.Printf("failed to close body: %v", err)
		}
	}()

	var resp struct {
		AccessToken  *string `json:"access_token"`
		RefreshToken *string `json:"refresh_token"`
	}
	decoder := json.NewDecoder(body)
	if err := decoder.Decode(&resp); err != nil {
		return &DecodeError{URL: url, Err: err}
	}
	if resp.AccessToken == nil {
		return &DecodeError{URL: url, Err: errors.New("missing access_token")}
	}
	if resp.RefreshToken == nil {
		return &DecodeError{URL: url, Err: errors.New("missing refresh_token")}
	}

	rc.tokens = models.TokenPair{
		AccessToken:  *resp.AccessToken,
		RefreshToken: *resp.RefreshToken,
	}
	rc.logger.Printf("token refresh completed successfully")

	return nil
}

func (rc *ResourceClient) attempt(ctx context.Context, url string) (*fetchResult, error) {

	rc.logger.Printf("GET %s", url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Authorization", "Bearer: "+rc.tokens.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := rc.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch from %s", url)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			rc.logger.Printf("failed to close body: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	return &fetchResult{statusCode: resp.StatusCode, status: resp.Status, body: body}, nil
}

func (rc *ResourceClient) post(ctx context.Context, url string, data any) (io.ReadCloser, error) {

	rc.logger.Printf("POST %s", url)
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := rc.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to perform request")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, &HTTPStatusError{URL: url, Status: resp.Status, StatusCode: resp.StatusCode}
	}

	return resp.Body, nil
}
