// ABOUTME: Audio manager: environment registry and routing
// ABOUTME: Validates requests and delegates them to the owning environment
package audiomanager

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/Resonate-Protocol/audiocore/pkg/audio"
	"github.com/Resonate-Protocol/audiocore/pkg/audio/convert"
	"github.com/Resonate-Protocol/audiocore/pkg/audio/device"
	"github.com/Resonate-Protocol/audiocore/pkg/environment"
	"github.com/sirupsen/logrus"
)

// Config holds manager configuration
type Config struct {
	Logger *logrus.Entry

	// Environment is the template for environments built by RegisterEnvironment
	Environment environment.Config
}

// Manager owns the registry of audio environments
type Manager struct {
	config Config
	logger *logrus.Entry

	// Registry; every structural change happens under mu
	mu           sync.Mutex
	environments map[string]*environment.Environment
	running      bool
	stopped      bool
}

// EnvironmentStatus is a snapshot of one environment
type EnvironmentStatus struct {
	ID           string
	State        environment.State
	Outputting   bool
	QueueLength  int
	Streams      int
	InputFormat  audio.Format
	OutputFormat audio.Format
}

// New creates a manager with no environments
func New(config Config) *Manager {
	if config.Logger == nil {
		config.Logger = logrus.WithField("component", "audiomanager")
	}
	if config.Environment.Logger == nil {
		config.Environment.Logger = config.Logger.WithField("component", "environment")
	}

	return &Manager{
		config:       config,
		logger:       config.Logger,
		environments: make(map[string]*environment.Environment),
	}
}

// Register adds env to the registry. While the manager is running the
// environment is started first; if that fails it is not registered.
func (m *Manager) Register(env *environment.Environment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := env.ID()
	if _, exists := m.environments[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateEnvironment, id)
	}

	if m.running {
		if err := env.Start(); err != nil {
			return fmt.Errorf("failed to start environment %s: %w", id, err)
		}
	}

	m.environments[id] = env
	m.logger.WithFields(logrus.Fields{
		"environment": id,
		"started":     m.running,
	}).Info("Environment registered")
	return nil
}

// RegisterEnvironment builds an environment for binding from the manager's
// environment template and registers it
func (m *Manager) RegisterEnvironment(binding device.Binding, opts ...environment.Option) (string, error) {
	env, err := environment.New(binding, m.config.Environment, opts...)
	if err != nil {
		return "", err
	}
	if err := m.Register(env); err != nil {
		return "", err
	}
	return env.ID(), nil
}

// UnregisterEnvironment stops and removes an environment. Unknown ids are
// logged and ignored.
func (m *Manager) UnregisterEnvironment(id string) {
	m.mu.Lock()
	env, exists := m.environments[id]
	if exists {
		delete(m.environments, id)
	}
	m.mu.Unlock()

	if !exists {
		m.logger.WithField("environment", id).Warn("Unregister of unknown environment ignored")
		return
	}

	if env.State() == environment.StateRunning {
		if err := env.Stop(); err != nil {
			m.logger.WithError(err).WithField("environment", id).Warn("Failed to stop environment")
		}
	}
	m.logger.WithField("environment", id).Info("Environment unregistered")
}

// PlayAudio submits src, a PCM stream in format, to an environment.
//
// The source is converted to the environment's output format. While the
// manager is not running, behaviors other than Queue and QueuePriority are
// downgraded to Queue. On success
// the environment owns src and closes it (if it is an io.Closer) when the
// output ends; on error nothing has been queued and src is left untouched.
func (m *Manager) PlayAudio(id string, src io.Reader, format audio.Format, behavior environment.Behavior, opts ...environment.OutputOption) (*environment.Output, error) {
	if !behavior.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBehavior, behavior)
	}

	env, running, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	reader, err := convert.NewReader(src, format, env.OutputFormat())
	if err != nil {
		return nil, err
	}

	logger := m.logger.WithFields(logrus.Fields{
		"environment": id,
		"behavior":    behavior.String(),
	})

	if !running && behavior != environment.Queue && behavior != environment.QueuePriority {
		logger.Warn("Manager not running, downgrading output behavior to queue")
		behavior = environment.Queue
	}

	out := environment.NewOutput(reader, opts...)
	if err := env.PlayAudio(out, behavior); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"output": out.ID(),
		"format": format.String(),
	}).Debug("Audio submitted")
	return out, nil
}

// StopAudioOutput discards whatever the environment is playing
func (m *Manager) StopAudioOutput(id string) error {
	env, _, err := m.lookup(id)
	if err != nil {
		return err
	}
	env.StopOutput()
	return nil
}

// GetInputStream opens a new subscriber stream on an environment's input
func (m *Manager) GetInputStream(id string) (*environment.Stream, error) {
	env, _, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return env.OpenStream()
}

// IsOutputting reports whether an environment is currently playing
func (m *Manager) IsOutputting(id string) (bool, error) {
	env, _, err := m.lookup(id)
	if err != nil {
		return false, err
	}
	return env.IsOutputting(), nil
}

// ListEnvironmentIDs returns the registered ids in sorted order
func (m *Manager) ListEnvironmentIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedIDs()
}

// Status returns a snapshot of every registered environment, sorted by id
func (m *Manager) Status() []EnvironmentStatus {
	m.mu.Lock()
	envs := make([]*environment.Environment, 0, len(m.environments))
	for _, id := range m.sortedIDs() {
		envs = append(envs, m.environments[id])
	}
	m.mu.Unlock()

	status := make([]EnvironmentStatus, 0, len(envs))
	for _, env := range envs {
		status = append(status, EnvironmentStatus{
			ID:           env.ID(),
			State:        env.State(),
			Outputting:   env.IsOutputting(),
			QueueLength:  env.QueueLength(),
			Streams:      env.StreamCount(),
			InputFormat:  env.InputFormat(),
			OutputFormat: env.OutputFormat(),
		})
	}
	return status
}

// Start starts every registered environment. A device that fails to start
// is logged and skipped. Environments cannot be restarted, so neither can a
// manager that has been stopped.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return ErrManagerAlreadyRunning
	}
	if m.stopped {
		return ErrManagerStopped
	}

	started := 0
	for _, id := range m.sortedIDs() {
		env := m.environments[id]
		if env.State() != environment.StateCreated {
			continue
		}
		if err := env.Start(); err != nil {
			m.logger.WithError(err).WithField("environment", id).Error("Failed to start environment")
			continue
		}
		started++
	}

	m.running = true
	m.logger.WithFields(logrus.Fields{
		"environments": len(m.environments),
		"started":      started,
	}).Info("Audio manager started")
	return nil
}

// Stop stops every running environment. Stopping a stopped manager is a no-op.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.stopped = true
	envs := make([]*environment.Environment, 0, len(m.environments))
	for _, env := range m.environments {
		envs = append(envs, env)
	}
	m.mu.Unlock()

	for _, env := range envs {
		if env.State() != environment.StateRunning {
			continue
		}
		if err := env.Stop(); err != nil {
			m.logger.WithError(err).WithField("environment", env.ID()).Warn("Failed to stop environment")
		}
	}
	m.logger.Info("Audio manager stopped")
}

// IsRunning reports whether the manager has been started
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Manager) lookup(id string) (*environment.Environment, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	env, exists := m.environments[id]
	if !exists {
		return nil, false, fmt.Errorf("%w: %s", ErrUnknownEnvironment, id)
	}
	return env, m.running, nil
}

// sortedIDs must be called with m.mu held
func (m *Manager) sortedIDs() []string {
	ids := make([]string, 0, len(m.environments))
	for id := range m.environments {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
