package anchor

import (
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Option augments how a Session is constructed.
type Option func(*Session)

// WithNamespace sets the session's namespace. The default comes from the
// ANCHOR_NAMESPACE environment variable, falling back to "anchor".
func WithNamespace(namespace string) Option {
	return func(s *Session) {
		s.cfg.Namespace = namespace
	}
}

// WithRetirementWindow sets how many consecutive synchronization passes a
// stale id may stay unbound before it is retired. Zero retires an id in the
// same pass that unbinds it. Larger windows tolerate longer rollback windows
// at the cost of registry memory.
func WithRetirementWindow(passes int) Option {
	return func(s *Session) {
		s.cfg.RetirementWindow = passes
	}
}

// WithSeedStrategy selects how the allocator recovers its counter:
// SeedMaxObserved derives it from live data each pass, SeedPersistedCounter
// keeps it in redis outside the snapshot boundary (requires WithRedis).
func WithSeedStrategy(strategy SeedStrategy) Option {
	return func(s *Session) {
		s.cfg.SeedStrategy = strategy
	}
}

// WithRedis attaches a redis client for the persisted allocator counter and
// the component schema guard. Without it the session is purely in-memory.
func WithRedis(client *redis.Client) Option {
	return func(s *Session) {
		s.redisClient = client
	}
}

// WithLogger replaces the session's base logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithPrettyLog switches the session logger to human-readable console output.
func WithPrettyLog() Option {
	return func(s *Session) {
		s.logger = s.logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
