package log

import (
	"github.com/rs/zerolog"

	"github.com/anchor-ecs/anchor/types"
)

// Loggable is the view of an identity registry the logging helpers need.
type Loggable interface {
	Len() int
	Highest() types.StableID
	BoundIDs() []types.StableID
	StaleIDs() []types.StableID
}

func loadIDsIntoArrayLogger(ids []types.StableID, arrayLogger *zerolog.Array) *zerolog.Array {
	for _, id := range ids {
		arrayLogger = arrayLogger.Uint64(uint64(id))
	}
	return arrayLogger
}

// Registry logs the bound and stale id sets of a registry. Intended for
// debug-level dumps after a synchronization pass.
func Registry(logger *zerolog.Logger, level zerolog.Level, target Loggable) {
	zeroLoggerEvent := logger.WithLevel(level)
	zeroLoggerEvent.Int("total_bound", target.Len())
	zeroLoggerEvent.Uint64("highest_id", uint64(target.Highest()))
	zeroLoggerEvent.Array("bound", loadIDsIntoArrayLogger(target.BoundIDs(), zerolog.Arr()))
	zeroLoggerEvent.Array("stale", loadIDsIntoArrayLogger(target.StaleIDs(), zerolog.Arr()))
	zeroLoggerEvent.Send()
}

// CreateSessionLogger creates a sub logger with the entry {"namespace": namespace}.
func CreateSessionLogger(logger *zerolog.Logger, namespace string) *zerolog.Logger {
	newLogger := logger.With().Str("namespace", namespace).Logger()
	return &newLogger
}

// CreateTraceLogger creates a trace logger. Using a single id you can use this
// logger to follow and log a data path.
func CreateTraceLogger(logger *zerolog.Logger, traceID string) *zerolog.Logger {
	newLogger := logger.With().Str("trace_id", traceID).Logger()
	return &newLogger
}
