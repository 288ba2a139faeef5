package resourcemanager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dos-group/group-adaptive-scheduler/pkg/log"
	"github.com/dos-group/group-adaptive-scheduler/pkg/types"
)

// Manager is the external collaborator that actually launches an
// application's placed containers and reports back when they have all
// terminated. The scheduler never looks inside it.
type Manager interface {
	// Start submits app's placed containers, in placement order, and must
	// invoke onFinished(app) exactly once when all of them have terminated.
	Start(ctx context.Context, app *types.Application, onFinished func(*types.Application)) error
}

// InMemory is a resource-manager stub for tests and the CLI harness: it
// "runs" an application for a fixed duration and then reports completion,
// without touching any real container runtime.
type InMemory struct {
	mu       sync.Mutex
	runtime  time.Duration
	stopped  bool
	inFlight map[string]context.CancelFunc
}

// NewInMemory creates a stub resource manager whose applications "complete"
// after runtime has elapsed.
func NewInMemory(runtime time.Duration) *InMemory {
	return &InMemory{
		runtime:  runtime,
		inFlight: make(map[string]context.CancelFunc),
	}
}

// Start schedules app's completion after the configured runtime.
func (m *InMemory) Start(ctx context.Context, app *types.Application, onFinished func(*types.Application)) error {
	logger := log.WithComponent("resourcemanager")

	runCtx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		cancel()
		return fmt.Errorf("resource manager stopped")
	}
	m.inFlight[app.ID] = cancel
	m.mu.Unlock()

	logger.Debug().Str("app_id", app.ID).Str("app", app.Name).Dur("runtime", m.runtime).Msg("starting application")

	go func() {
		defer cancel()
		select {
		case <-time.After(m.runtime):
		case <-runCtx.Done():
			return
		}

		m.mu.Lock()
		delete(m.inFlight, app.ID)
		m.mu.Unlock()

		logger.Debug().Str("app_id", app.ID).Str("app", app.Name).Msg("application finished")
		onFinished(app)
	}()

	return nil
}

// Stop cancels every in-flight application's completion timer without
// invoking their callbacks; used for abrupt shutdown in tests.
func (m *InMemory) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	for _, cancel := range m.inFlight {
		cancel()
	}
	m.inFlight = make(map[string]context.CancelFunc)
}
