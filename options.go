package beam

import (
	"github.com/rs/zerolog"

	"github.com/noodle630/beam/pkg/errors"
	"github.com/noodle630/beam/pkg/events"
	"github.com/noodle630/beam/pkg/logging"
	"github.com/noodle630/beam/pkg/mapping"
	"github.com/noodle630/beam/pkg/metrics"
	"github.com/noodle630/beam/pkg/reconcile"
	"github.com/noodle630/beam/pkg/shopify"
	"github.com/noodle630/beam/pkg/store"
	"github.com/noodle630/beam/pkg/store/memory"
	"github.com/noodle630/beam/pkg/upsert"
)

// Option is a function that configures a Beam instance.
type Option func(*config) error

// config holds the assembled collaborators.
type config struct {
	store     store.Store
	rules     mapping.RuleStore
	shopify   *shopify.Client
	publisher events.Publisher
	metrics   *metrics.Registry
	logger    *zerolog.Logger
}

func newConfig() *config {
	return &config{
		store:  memory.New(),
		rules:  mapping.StaticRuleStore(nil),
		logger: logging.Default(),
	}
}

// options applies the given options to the config.
func (b *beam) options(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(b.config); err != nil {
			return err
		}
	}
	return nil
}

func (b *beam) engineOptions() []upsert.Option {
	opts := []upsert.Option{upsert.WithLogger(b.config.logger)}
	if b.config.publisher != nil {
		opts = append(opts, upsert.WithPublisher(b.config.publisher))
	}
	if b.config.metrics != nil {
		opts = append(opts, upsert.WithMetrics(b.config.metrics))
	}
	return opts
}

func (b *beam) reconcilerOptions() []reconcile.Option {
	opts := []reconcile.Option{reconcile.WithLogger(b.config.logger)}
	if b.config.metrics != nil {
		opts = append(opts, reconcile.WithMetrics(b.config.metrics))
	}
	return opts
}

// WithStore sets the record store backend.
func WithStore(s store.Store) Option {
	return func(c *config) error {
		if s == nil {
			return errors.NewValidationError("store", nil, "store cannot be nil")
		}
		c.store = s
		return nil
	}
}

// WithRuleStore sets the mapping rule store.
func WithRuleStore(rs mapping.RuleStore) Option {
	return func(c *config) error {
		if rs == nil {
			return errors.NewValidationError("rules", nil, "rule store cannot be nil")
		}
		c.rules = rs
		return nil
	}
}

// WithShopifyClient sets the upstream catalog client used by SyncShopify.
func WithShopifyClient(client *shopify.Client) Option {
	return func(c *config) error {
		c.shopify = client
		return nil
	}
}

// WithPublisher enables product-change event publishing.
func WithPublisher(p events.Publisher) Option {
	return func(c *config) error {
		c.publisher = p
		return nil
	}
}

// WithMetrics enables ingestion and reconciliation counters.
func WithMetrics(m *metrics.Registry) Option {
	return func(c *config) error {
		c.metrics = m
		return nil
	}
}

// WithLogger sets the logger passed to every component.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *config) error {
		if logger == nil {
			logger = logging.Default()
		}
		c.logger = logger
		return nil
	}
}
