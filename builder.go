package authgate

import (
	"errors"
	"time"

	internalaudit "github.com/pulsekjo/authgate/internal/audit"
	"github.com/pulsekjo/authgate/internal/limiters"
	"github.com/pulsekjo/authgate/internal/stores"
	"github.com/pulsekjo/authgate/roster"
	"github.com/pulsekjo/authgate/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder defines a public type used by authgate APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  *redis.Client

	directory  *roster.Directory
	rosterPath string

	notifier     Notifier
	codeProvider CodeProvider
	auditSink    AuditSink
	logger       *zap.Logger

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

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis may return an error when input validation, dependency calls, or security checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithDirectory describes the withdirectory operation and its observable behavior.
//
// WithDirectory may return an error when input validation, dependency calls, or security checks fail.
// WithDirectory does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithDirectory(d *roster.Directory) *Builder {
	b.directory = d
	return b
}

// WithRosterFile describes the withrosterfile operation and its observable behavior.
//
// WithRosterFile may return an error when input validation, dependency calls, or security checks fail.
// WithRosterFile does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// A roster file that cannot be loaded does not fail Build; it produces an
// unavailable directory, so every login reports the roster outage instead
// of a credential mismatch.
func (b *Builder) WithRosterFile(path string) *Builder {
	b.rosterPath = path
	return b
}

// WithNotifier describes the withnotifier operation and its observable behavior.
//
// WithNotifier may return an error when input validation, dependency calls, or security checks fail.
// WithNotifier does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithCodeProvider describes the withcodeprovider operation and its observable behavior.
//
// WithCodeProvider may return an error when input validation, dependency calls, or security checks fail.
// WithCodeProvider does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithCodeProvider(p CodeProvider) *Builder {
	b.codeProvider = p
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger describes the withlogger operation and its observable behavior.
//
// WithLogger may return an error when input validation, dependency calls, or security checks fail.
// WithLogger does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
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

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms may return an error when input validation, dependency calls, or security checks fail.
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
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

	cfg := cloneConfig(b.config)
	applyKeyDefaults(&cfg)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	directory := b.directory
	if directory == nil && b.rosterPath != "" {
		loaded, err := roster.LoadFile(b.rosterPath)
		if err != nil {
			directory = roster.Unavailable(err)
		} else {
			directory = loaded
		}
	}
	if directory == nil {
		return nil, errors.New("user directory required")
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	notifier := b.notifier
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}

	engine := &Engine{
		config:       cfg,
		directory:    directory,
		lockout:      limiters.NewLockoutLimiter(b.redis, cfg.Keys.LockoutPrefix),
		settings:     stores.NewSettingsStore(b.redis, cfg.Keys.SettingsKey),
		otpStore:     stores.NewOTPChallengeStore(b.redis, cfg.Keys.OTPKey),
		sessionStore: session.NewStore(b.redis, cfg.Keys.SessionKey),
		notifier:     notifier,
		codeProvider: b.codeProvider,
		logger:       logger,
		now:          time.Now,
	}

	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
