package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/zatekoja/providerdirectory/pkg/config"
	"github.com/zatekoja/providerdirectory/pkg/retry"
)

// Client represents a Typesense client
type Client struct {
	client *typesense.Client
}

// NewClient creates a new Typesense client with exponential backoff retry
func NewClient(cfg *config.TypesenseConfig) (*Client, error) {
	return newClient(cfg, retry.DefaultConfig())
}

func newClient(cfg *config.TypesenseConfig, retryCfg retry.Config) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	err := retry.DoWithLog(
		context.Background(),
		retryCfg,
		"Typesense",
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			ok, err := client.Health(ctx, 2*time.Second)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("typesense reports unhealthy")
			}
			return nil
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("Typesense connection failed")
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	log.Info().Str("url", cfg.URL).Msg("connected to Typesense")
	return &Client{client: client}, nil
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// EnsureCollection creates the collection unless it already exists. An
// existing collection keeps its schema.
func (c *Client) EnsureCollection(ctx context.Context, schema *api.CollectionSchema) error {
	if _, err := c.client.Collection(schema.Name).Retrieve(ctx); err == nil {
		log.Debug().Str("collection", schema.Name).Msg("typesense collection already exists")
		return nil
	}

	if _, err := c.client.Collections().Create(ctx, schema); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", schema.Name, err)
	}

	log.Info().Str("collection", schema.Name).Msg("created typesense collection")
	return nil
}

// Upsert indexes one document
func (c *Client) Upsert(ctx context.Context, collection string, document map[string]interface{}) error {
	_, err := c.client.Collection(collection).Documents().Upsert(ctx, document)
	return err
}
