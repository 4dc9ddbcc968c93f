// Package anchor keeps parent/child relationships between simulation objects
// valid across rollback. Relationships are recorded with permanent stable
// ids stored on the objects themselves, and a per-step synchronization pass
// reconciles the stable-id registry against whatever set of live handles the
// host object store currently has, including after a full snapshot restore.
//
// The host drives the step order: apply object creations, destructions, and
// restores; call Session.Sync; then run any logic that reads or mutates the
// hierarchy through Session.Graph. The registry is stale between a restore
// and the next Sync and must not be consulted in that window.
package anchor

import (
	"context"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/anchor-ecs/anchor/hierarchy"
	"github.com/anchor-ecs/anchor/identity"
	"github.com/anchor-ecs/anchor/log"
	"github.com/anchor-ecs/anchor/storage"
)

// SeedStrategy selects how the id allocator recovers its counter across
// restores and restarts.
type SeedStrategy string

const (
	// SeedMaxObserved derives the next id from the maximum id present on
	// live object data each pass. Nothing to persist; only safe while all
	// issued ids are still reachable from some snapshot the host may restore.
	SeedMaxObserved SeedStrategy = "max-observed"
	// SeedPersistedCounter keeps the counter in redis, outside the host's
	// snapshot boundary, so even ids that vanished from every snapshot are
	// never reissued.
	SeedPersistedCounter SeedStrategy = "persisted-counter"
)

// DefaultRetirementWindow is how many passes a stale id survives before
// retirement when not configured otherwise.
const DefaultRetirementWindow = 32

// ErrSchemaMismatch is returned by NewSession when the namespace's stored
// component schema differs from the running code's.
var ErrSchemaMismatch = storage.ErrSchemaMismatch

// Store is the full host object store contract: the synchronizer's view
// (enumeration and identity write-back) plus the graph's view (component
// access, destruction, liveness). memstore.Store implements it; a real host
// adapts its own object table to it.
type Store interface {
	identity.Store
	hierarchy.Store
}

// Session owns the identity registry, allocator, synchronizer, and hierarchy
// graph for one simulation. Sessions are isolated from each other; tests can
// run many side by side.
type Session struct {
	cfg         Config
	store       Store
	redisClient *redis.Client
	logger      zerolog.Logger

	registry *identity.Registry
	alloc    identity.Allocator
	syncer   *identity.Synchronizer
	graph    *hierarchy.Graph
}

// NewSession builds a session over the given host store. Configuration comes
// from the environment (GetConfig) and can be overridden with options.
func NewSession(store Store, opts ...Option) (*Session, error) {
	s := &Session{
		cfg:    GetConfig(),
		store:  store,
		logger: zerolog.New(os.Stdout).With().Timestamp().Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.RetirementWindow < 0 {
		return nil, eris.Errorf("retirement window must be >= 0, got %d", s.cfg.RetirementWindow)
	}
	s.logger = *log.CreateSessionLogger(&s.logger, s.cfg.Namespace)

	switch s.cfg.SeedStrategy {
	case SeedMaxObserved:
		s.alloc = identity.NewMaxObservedAllocator()
	case SeedPersistedCounter:
		if s.redisClient == nil {
			return nil, eris.New("persisted-counter seed strategy requires a redis client")
		}
		s.alloc = identity.NewPersistedAllocator(
			storage.NewRedisPrimitiveStorage(s.redisClient), s.cfg.Namespace)
	default:
		return nil, eris.Errorf("unknown allocator seed strategy %q", s.cfg.SeedStrategy)
	}

	if s.redisClient != nil {
		if err := s.validateSchema(context.Background()); err != nil {
			return nil, err
		}
	}

	s.registry = identity.NewRegistry()
	s.syncer = identity.NewSynchronizer(store, s.registry, s.alloc, s.cfg.RetirementWindow, s.logger)
	s.graph = hierarchy.NewGraph(store, s.registry, s.logger)

	s.logger.Info().
		Str("seed_strategy", string(s.cfg.SeedStrategy)).
		Int("retirement_window", s.cfg.RetirementWindow).
		Msg("session created")
	return s, nil
}

// Sync runs exactly one synchronization pass. The host must call it once per
// simulation step, after applying that step's object mutations and before
// running hierarchy-consuming logic. A returned error (binding conflict,
// storage failure) leaves the registry stale; the host should not run
// dependent logic until the cause is corrected.
func (s *Session) Sync(ctx context.Context) (identity.PassSummary, error) {
	summary, err := s.syncer.RunPass(ctx)
	if err != nil {
		return summary, err
	}
	log.Registry(&s.logger, zerolog.TraceLevel, s.registry)
	return summary, nil
}

// Graph returns the hierarchy query/mutation API. Its results are only as
// fresh as the last Sync.
func (s *Session) Graph() *hierarchy.Graph {
	return s.graph
}

// Registry exposes read access to the identity registry.
func (s *Session) Registry() *identity.Registry {
	return s.registry
}

func (s *Session) Namespace() Namespace {
	return Namespace(s.cfg.Namespace)
}

// Close releases the session's durable storage connection, if any.
func (s *Session) Close() error {
	if s.redisClient == nil {
		return nil
	}
	err := s.redisClient.Close()
	if eris.Is(err, redis.ErrClosed) {
		return nil
	}
	return eris.Wrap(err, "")
}

// validateSchema stores the hierarchy component's JSON schema on first use
// of a namespace and refuses to start against a namespace whose stored
// schema differs from the running code's.
func (s *Session) validateSchema(ctx context.Context) error {
	schemaBytes, err := hierarchy.Schema()
	if err != nil {
		return err
	}
	schemaStore := storage.NewSchemaStorage(s.redisClient)
	comp := hierarchy.Component{}
	return schemaStore.ValidateSchema(ctx, s.cfg.Namespace, comp.Name(), schemaBytes)
}
