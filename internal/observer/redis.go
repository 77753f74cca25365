package observer

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vnykmshr/streamvis/pkg/streaming/event"
	"github.com/vnykmshr/streamvis/pkg/streaming/stage"
)

// RedisConfig configures a RedisExporter.
type RedisConfig struct {
	// Redis client used for all writes.
	Redis redis.UniversalClient

	// Key is the prefix for the run's keys: events go to <Key>:<RunID>:events
	// and stage descriptors to <Key>:<RunID>:stages.
	Key string

	// RunID distinguishes concurrent runs. Generated when empty.
	RunID string

	// MaxLen caps the event stream (approximate trimming). 0 keeps everything.
	MaxLen int64

	// RedisTimeout bounds each Redis call.
	RedisTimeout time.Duration

	// KeyTTL is how long run keys live after the last write.
	KeyTTL time.Duration
}

// DefaultRedisConfig returns a configuration without a client.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Key:          "streamvis",
		RunID:        generateRunID(),
		RedisTimeout: 500 * time.Millisecond,
		KeyTTL:       time.Hour,
	}
}

// RedisExporter appends every event to a Redis stream so an out-of-process
// renderer can replay the run.
type RedisExporter struct {
	config RedisConfig
	events string
	stages string
}

// NewRedisExporter validates config and returns an exporter.
func NewRedisExporter(config RedisConfig) (*RedisExporter, error) {
	if config.Redis == nil {
		return nil, &ConfigError{"redis client is required"}
	}
	if config.Key == "" {
		return nil, &ConfigError{"key is required"}
	}
	if config.MaxLen < 0 {
		return nil, &ConfigError{"max length cannot be negative"}
	}
	if config.RunID == "" {
		config.RunID = generateRunID()
	}
	if config.RedisTimeout == 0 {
		config.RedisTimeout = 500 * time.Millisecond
	}
	if config.KeyTTL == 0 {
		config.KeyTTL = time.Hour
	}

	prefix := config.Key + ":" + config.RunID
	return &RedisExporter{
		config: config,
		events: prefix + ":events",
		stages: prefix + ":stages",
	}, nil
}

// RunID returns the id under which the run is stored.
func (x *RedisExporter) RunID() string {
	return x.config.RunID
}

// EventsKey returns the stream key.
func (x *RedisExporter) EventsKey() string {
	return x.events
}

// StagesKey returns the hash key holding stage descriptors.
func (x *RedisExporter) StagesKey() string {
	return x.stages
}

// WriteStages stores the descriptors of the run, one hash field per stage.
func (x *RedisExporter) WriteStages(ctx context.Context, descriptors []stage.Descriptor) error {
	ctx, cancel := context.WithTimeout(ctx, x.config.RedisTimeout)
	defer cancel()

	fields := make(map[string]interface{}, len(descriptors))
	for _, d := range descriptors {
		fields[strconv.Itoa(int(d.ID))] = d.String()
	}

	pipe := x.config.Redis.TxPipeline()
	pipe.HSet(ctx, x.stages, fields)
	pipe.Expire(ctx, x.stages, x.config.KeyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return &RedisError{Operation: "write stages", Err: err}
	}
	return nil
}

// Observe implements Observer.
func (x *RedisExporter) Observe(ctx context.Context, e event.Event) error {
	ctx, cancel := context.WithTimeout(ctx, x.config.RedisTimeout)
	defer cancel()

	args := &redis.XAddArgs{
		Stream: x.events,
		Values: eventFields(e),
	}
	if x.config.MaxLen > 0 {
		args.MaxLen = x.config.MaxLen
		args.Approx = true
	}

	pipe := x.config.Redis.Pipeline()
	pipe.XAdd(ctx, args)
	pipe.Expire(ctx, x.events, x.config.KeyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return &RedisError{Operation: "append event", Err: err}
	}
	return nil
}

// eventFields flattens an event into stream entry fields.
func eventFields(e event.Event) map[string]interface{} {
	f := fieldVisitor{values: map[string]interface{}{
		"kind": e.Kind().String(),
		"item": uint64(e.Item()),
	}}
	e.Accept(&f)
	return f.values
}

type fieldVisitor struct {
	values map[string]interface{}
}

func (f *fieldVisitor) VisitCreated(e event.Created) {
	f.values["stage"] = int(e.StageID)
	f.value(e.Value)
}

func (f *fieldVisitor) VisitValueChanged(e event.ValueChanged) {
	f.value(e.Value)
}

func (f *fieldVisitor) VisitStageAdvanced(e event.StageAdvanced) {
	f.values["from"] = int(e.From)
	f.values["to"] = int(e.To)
}

func (f *fieldVisitor) VisitRejected(event.Rejected) {}

func (f *fieldVisitor) value(v event.Value) {
	f.values["value"] = v.Kind.String()
	if v.Kind == event.ValueInProgress {
		f.values["fraction"] = strconv.FormatFloat(v.Fraction, 'f', -1, 64)
	} else {
		f.values["color"] = v.Color.Hex()
	}
}

// ConfigError represents an exporter configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return "redis exporter config error: " + e.Message
}

// RedisError represents a Redis operation error.
type RedisError struct {
	Operation string
	Err       error
}

func (e *RedisError) Error() string {
	return "redis error in " + e.Operation + ": " + e.Err.Error()
}

func (e *RedisError) Unwrap() error {
	return e.Err
}

// generateRunID creates a unique identifier for one run.
func generateRunID() string {
	hostname, _ := os.Hostname()
	randomBytes := make([]byte, 4)
	_, _ = rand.Read(randomBytes)
	return fmt.Sprintf("%s-%d-%x-%d", hostname, os.Getpid(), randomBytes, time.Now().Unix())
}
