package cmd

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/viper"

	"github.com/noodle630/beam"
	"github.com/noodle630/beam/pkg/errors"
	"github.com/noodle630/beam/pkg/events"
	"github.com/noodle630/beam/pkg/logging"
	"github.com/noodle630/beam/pkg/mapping"
	"github.com/noodle630/beam/pkg/metrics"
	"github.com/noodle630/beam/pkg/shopify"
	"github.com/noodle630/beam/pkg/store"
	"github.com/noodle630/beam/pkg/store/memory"
	"github.com/noodle630/beam/pkg/store/postgres"
	"github.com/noodle630/beam/pkg/store/sqlite"
)

// Config keys read from the config file and BEAM_* environment variables.
const (
	keyStoreBackend = "store.backend"
	keyStorePath    = "store.path"
	keyStoreDSN     = "store.dsn"
	keyRulesDir     = "rules.dir"
	keyShopDomain   = "shopify.shop"
	keyShopToken    = "shopify.access_token"
	keyKafkaBrokers = "kafka.brokers"
	keyKafkaTopic   = "kafka.topic"
	keyMetricsAddr  = "metrics.addr"
)

// buildBeam assembles a Beam instance from viper configuration. The returned
// cleanup function closes the instance and must be called by the command.
func buildBeam() (beam.Beam, func(), error) {
	opts := []beam.Option{beam.WithLogger(logging.Default())}

	s, err := buildStore()
	if err != nil {
		return nil, nil, err
	}
	opts = append(opts, beam.WithStore(s))

	if dir := viper.GetString(keyRulesDir); dir != "" {
		opts = append(opts, beam.WithRuleStore(mapping.NewFileRuleStore(dir)))
	}

	if shop := viper.GetString(keyShopDomain); shop != "" {
		client := shopify.NewClient(shop, viper.GetString(keyShopToken),
			shopify.WithClientLogger(logging.Default()))
		opts = append(opts, beam.WithShopifyClient(client))
	}

	if brokers := viper.GetString(keyKafkaBrokers); brokers != "" {
		topic := viper.GetString(keyKafkaTopic)
		if topic == "" {
			topic = "beam.product-changes"
		}
		publisher := events.NewKafkaPublisher(strings.Split(brokers, ","), topic)
		opts = append(opts, beam.WithPublisher(publisher))
	}

	registry := metrics.NewRegistry()
	opts = append(opts, beam.WithMetrics(registry))
	serveMetrics(registry)

	b, err := beam.New(opts...)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := b.Close(); err != nil {
			logging.Warn().Err(err).Msg("Close failed")
		}
	}
	return b, cleanup, nil
}

// buildStore creates the record store named by store.backend. The default is
// the in-memory store, which is only useful for dry runs.
func buildStore() (store.Store, error) {
	backend := viper.GetString(keyStoreBackend)
	switch backend {
	case "", "memory":
		return memory.New(), nil
	case "sqlite":
		path := viper.GetString(keyStorePath)
		if path == "" {
			path = "beam.db"
		}
		return sqlite.Open(path)
	case "postgres":
		dsn := viper.GetString(keyStoreDSN)
		if dsn == "" {
			return nil, errors.NewValidationError("store.dsn", dsn, "postgres backend requires a DSN")
		}
		return postgres.Open(dsn)
	default:
		return nil, errors.NewValidationError("store.backend", backend,
			fmt.Sprintf("unknown backend %q (expected memory, sqlite, or postgres)", backend))
	}
}

// serveMetrics exposes the Prometheus registry when metrics.addr is set.
func serveMetrics(registry *metrics.Registry) {
	addr := viper.GetString(keyMetricsAddr)
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", registry.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logging.Warn().Err(err).Str("addr", addr).Msg("Metrics listener stopped")
		}
	}()
}
