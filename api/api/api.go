/* api.go
 * This file contains the API struct and its constructor. The bot and the web server only talk to this package; the
 * store, the external source and the logic package are wired together here. Methods are split by concern into
 * ingest.go, submissions.go and queries.go
 */

package api

import (
	"context"
	"crypto/subtle"
	"fmt"

	"hdc-league/api/external"
	"hdc-league/api/store"
	"hdc-league/config"

	"github.com/rs/zerolog"
)

const defaultFetchWorkers = 4

// API provides methods for interacting with the league data layer
type API struct {
	Store    store.Interface
	Source   external.Source
	Parser   *external.Parser
	adminKey string
	workers  int
	logger   zerolog.Logger
}

// New creates an API from already constructed collaborators
func New(s store.Interface, source external.Source, cfg *config.Config, logger zerolog.Logger) *API {
	workers := cfg.FetchWorkers
	if workers < 1 {
		workers = defaultFetchWorkers
	}
	return &API{
		Store:    s,
		Source:   source,
		Parser:   external.NewParser(logger.With().Str("component", "parser").Logger()),
		adminKey: cfg.AdminKey,
		workers:  workers,
		logger:   logger.With().Str("component", "api").Logger(),
	}
}

// NewAPI connects to the database and builds the export client from configuration
// Preconditions: Receives a loaded config and the root logger
// Postconditions: Returns the API with indexes ensured, or an error if the store could not be initialised
func NewAPI(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*API, error) {
	s, err := store.NewStore(ctx, cfg.DBName, cfg.MongoURI)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		s.Close(ctx)
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	client := external.NewClient(cfg.LeafBaseURL, cfg.FetchRate, cfg.FetchTimeout,
		logger.With().Str("component", "external").Logger())
	return New(s, client, cfg, logger), nil
}

// Close releases the store connection
func (a *API) Close(ctx context.Context) error {
	return a.Store.Close(ctx)
}

// Authorize checks an admin key. With no key configured every admin operation is refused
func (a *API) Authorize(key string) error {
	if a.adminKey == "" || key == "" {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(a.adminKey), []byte(key)) != 1 {
		return ErrUnauthorized
	}
	return nil
}
