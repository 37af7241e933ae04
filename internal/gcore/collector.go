package gcore

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/rm-hull/heat-metadata-collector/internal/config"
	"github.com/rm-hull/heat-metadata-collector/internal/merger"
	"github.com/rm-hull/heat-metadata-collector/internal/metrics"
	"github.com/rm-hull/heat-metadata-collector/internal/models"
)

const Name = "gcore"

// Collector validates the configuration, fetches the resource metadata and
// merges it into the ordered list consumed downstream.
//
// Callers only ever see two failure kinds: ErrNotConfigured when a required
// setting is missing (no network call is made), and ErrNotAvailable for
// anything that goes wrong after that.
//
// Collect calls are serialized: the client and its token pair are never used
// by two fetches at once.
type Collector struct {
	mu             sync.Mutex
	cfg            config.ClientConfig
	deploymentKeys []string
	client         MetadataFetcher
	logger         *log.Logger
	metrics        *metrics.Recorder
}

type CollectorOption func(*Collector)

// WithClient injects the fetcher used instead of building a ResourceClient.
func WithClient(client MetadataFetcher) CollectorOption {
	return func(c *Collector) {
		c.client = client
	}
}

func WithLogger(logger *log.Logger) CollectorOption {
	return func(c *Collector) {
		c.logger = logger
	}
}

func WithMetrics(recorder *metrics.Recorder) CollectorOption {
	return func(c *Collector) {
		c.metrics = recorder
	}
}

func NewCollector(cfg config.ClientConfig, deploymentKeys []string, opts ...CollectorOption) *Collector {
	if len(deploymentKeys) == 0 {
		deploymentKeys = []string{config.DEFAULT_DEPLOYMENT_KEY}
	}

	c := &Collector{
		cfg:            cfg,
		deploymentKeys: deploymentKeys,
		logger:         log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Collector) Name() string {
	return Name
}

func (c *Collector) Collect(ctx context.Context) ([]models.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	started := time.Now()

	if err := c.cfg.Validate(c.logger); err != nil {
		c.metrics.ObserveCollect(Name, metrics.OutcomeNotConfigured, time.Since(started))
		return nil, err
	}

	if c.client == nil {
		client, err := NewResourceClient(c.cfg, WithClientLogger(c.logger))
		if err != nil {
			return nil, c.notAvailable(err, started)
		}
		c.client = client
	}

	c.logger.Printf("fetching metadata from %s", *c.cfg.APIURL)
	doc, err := c.client.FetchMetadata(ctx)
	if err != nil {
		return nil, c.notAvailable(err, started)
	}

	entries, err := merger.MergedListFromContent(doc, c.deploymentKeys, Name)
	if err != nil {
		return nil, c.notAvailable(err, started)
	}
	c.metrics.ObserveCollect(Name, metrics.OutcomeSuccess, time.Since(started))
	return entries, nil
}

func (c *Collector) notAvailable(err error, started time.Time) error {
	c.logger.Printf("WARNING: %v", err)
	c.metrics.ObserveCollect(Name, metrics.OutcomeNotAvailable, time.Since(started))
	return errors.Mark(errors.Wrap(err, "metadata fetch failed"), ErrNotAvailable)
}
