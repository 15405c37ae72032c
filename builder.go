package careauth

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/carebridge/careauth/internal"
	"github.com/carebridge/careauth/session"
)

// Builder defines a public type used by careauth APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config

	api         APIClient
	redis       *redis.Client
	persistence SessionPersistence
	sink        EventSink
	clock       Clock
	warn        func(msg string)
	deviceID    string
	caches      []SessionCache

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBaseURL describes the withbaseurl operation and its observable behavior.
//
// WithBaseURL may return an error when input validation, dependency calls, or security checks fail.
// WithBaseURL does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.API.BaseURL = baseURL
	return b
}

// WithAPIClient describes the withapiclient operation and its observable behavior.
//
// WithAPIClient may return an error when input validation, dependency calls, or security checks fail.
// WithAPIClient does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAPIClient(api APIClient) *Builder {
	b.api = api
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis may return an error when input validation, dependency calls, or security checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithSessionPersistence describes the withsessionpersistence operation and its observable behavior.
//
// WithSessionPersistence may return an error when input validation, dependency calls, or security checks fail.
// WithSessionPersistence does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithSessionPersistence(p SessionPersistence) *Builder {
	b.persistence = p
	return b
}

// WithEventSink describes the witheventsink operation and its observable behavior.
//
// WithEventSink may return an error when input validation, dependency calls, or security checks fail.
// WithEventSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithEventSink(sink EventSink) *Builder {
	b.sink = sink
	return b
}

// WithClock describes the withclock operation and its observable behavior.
//
// WithClock may return an error when input validation, dependency calls, or security checks fail.
// WithClock does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithClock(clk Clock) *Builder {
	b.clock = clk
	return b
}

// WithLogger describes the withlogger operation and its observable behavior.
//
// WithLogger may return an error when input validation, dependency calls, or security checks fail.
// WithLogger does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLogger(warn func(msg string)) *Builder {
	b.warn = warn
	return b
}

// WithDeviceID describes the withdeviceid operation and its observable behavior.
//
// WithDeviceID may return an error when input validation, dependency calls, or security checks fail.
// WithDeviceID does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithDeviceID(deviceID string) *Builder {
	b.deviceID = deviceID
	return b
}

// WithCache describes the withcache operation and its observable behavior.
//
// WithCache may return an error when input validation, dependency calls, or security checks fail.
// WithCache does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithCache(c SessionCache) *Builder {
	if c != nil {
		b.caches = append(b.caches, c)
	}
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	if b.api == nil {
		if err := validateConfig(b.config); err != nil {
			return nil, err
		}
	}

	deviceID := b.deviceID
	if deviceID == "" {
		id, err := internal.NewDeviceID()
		if err != nil {
			return nil, err
		}
		deviceID = id.String()
	}

	api := b.api
	if api == nil {
		client, err := newHTTPAPIClient(b.config.API, deviceID)
		if err != nil {
			return nil, err
		}
		api = client
	}

	persistence := b.persistence
	if persistence == nil && b.redis != nil && b.config.Session.PersistEnabled {
		persistence = &redisPersistence{
			store:    session.NewStore(b.redis, b.config.Session.RedisPrefix),
			deviceID: deviceID,
		}
	}
	if persistence == nil {
		persistence = newMemoryPersistence()
	}

	clock := b.clock
	if clock == nil {
		clock = systemClock{}
	}

	e := &Engine{
		config:   cloneConfig(b.config),
		api:      api,
		clock:    clock,
		warnFn:   b.warn,
		deviceID: deviceID,
		metrics:  NewMetrics(b.config.Metrics),
		events:   newEventDispatcher(b.config.Events, b.sink),
	}
	e.sessions = newSessionStore(persistence, e.warn)

	for _, c := range b.caches {
		e.sessions.registerCache(c)
	}

	if b.config.Session.RestoreOnBuild {
		if e.sessions.restore(context.Background()) {
			e.metricInc(MetricSessionRestored)
		}
	}

	b.built = true
	return e, nil
}
