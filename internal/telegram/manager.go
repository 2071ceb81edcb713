package telegram

import (
	"context"
	"sync"

	"github.com/celestix/gotgproto"
	"github.com/gotd/td/tg"
	"gorm.io/gorm"

	"github.com/blockedby/channel-stats/internal/config"
	"github.com/blockedby/channel-stats/internal/logger"
)

// Status represents the Telegram client status.
type Status string

// Status constants define the possible states of the Telegram client.
const (
	StatusInitializing Status = "INITIALIZING"
	StatusReady        Status = "READY"
	StatusUnauthorized Status = "UNAUTHORIZED"
	StatusError        Status = "ERROR"
)

// ClientFactory is a function that creates a telegram client.
type ClientFactory func(ctx context.Context, cfg *config.Config, db *gorm.DB) (*gotgproto.Client, error)

// Manager handles Telegram client lifecycle.
type Manager struct {
	client *gotgproto.Client
	db     *gorm.DB
	cfg    *config.Config
	log    *logger.Logger

	status  Status
	lastErr error
	mu      sync.RWMutex

	clientFactory ClientFactory
}

// NewManager creates a new Telegram Manager. db may be nil when the session
// comes from TG_SESSION_STRING.
func NewManager(cfg *config.Config, db *gorm.DB, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	return &Manager{
		db:            db,
		cfg:           cfg,
		log:           log.Component("telegram"),
		status:        StatusInitializing,
		clientFactory: NewSessionClient,
	}
}

// SetClientFactory allows overriding the client creation logic (e.g. for testing).
func (m *Manager) SetClientFactory(f ClientFactory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clientFactory = f
}

// GetStatus returns the current Telegram client status.
func (m *Manager) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// LastError returns the error that put the manager into StatusError.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// API returns the raw tg.Client for direct API calls.
func (m *Manager) API() (*tg.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.client == nil || m.status != StatusReady {
		return nil, ErrNotAuthorized
	}
	return m.client.API(), nil
}

// Init connects using the configured session. Missing credentials or a
// missing session leave the manager unauthorized; the app keeps running.
func (m *Manager) Init(ctx context.Context) error {
	m.setStatus(StatusInitializing, nil)

	if !m.cfg.HasTelegramCredentials() {
		m.log.Info().Msg("telegram: TG_API_ID/TG_API_HASH not set, fetching disabled")
		m.setStatus(StatusUnauthorized, nil)
		return nil
	}

	if m.cfg.TGSessionStr == "" {
		if m.db == nil || !m.hasStoredSession() {
			m.log.Info().Msg("telegram: no session configured, waiting for auth")
			m.setStatus(StatusUnauthorized, nil)
			return nil
		}
	}

	m.mu.RLock()
	factory := m.clientFactory
	m.mu.RUnlock()

	client, err := factory(ctx, m.cfg, m.db)
	if err != nil {
		m.log.Warn().Err(err).Msg("telegram: failed to initialize client")
		m.setStatus(StatusError, err)
		return nil // keep the app running; ingestion reports unavailable
	}

	m.mu.Lock()
	m.client = client
	m.status = StatusReady
	m.lastErr = nil
	m.mu.Unlock()

	m.log.Info().Msg("telegram: client is ready")
	return nil
}

func (m *Manager) hasStoredSession() bool {
	var count int64
	if err := m.db.Table("sessions").Count(&count).Error; err != nil {
		m.log.Warn().Err(err).Msg("telegram: failed to check sessions table")
		return false
	}
	return count > 0
}

func (m *Manager) setStatus(s Status, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = s
	m.lastErr = err
}

// Stop stops the Telegram client.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		m.client.Stop()
		m.client = nil
	}
	if m.status == StatusReady {
		m.status = StatusUnauthorized
	}
}
