package estimator

import (
	"fmt"

	"github.com/dos-group/group-adaptive-scheduler/pkg/log"
	"github.com/dos-group/group-adaptive-scheduler/pkg/persistence"
)

// Save writes the estimator's current state to w under path.
func (c *Complementarity) Save(w persistence.Writer, path string) error {
	if err := w.Save(path, c.Snapshot()); err != nil {
		return fmt.Errorf("save estimator snapshot: %w", err)
	}
	return nil
}

// Load restores the estimator's state from a previously saved snapshot.
func (c *Complementarity) Load(w persistence.Writer, path string) error {
	snapshot, err := w.Load(path)
	if err != nil {
		return fmt.Errorf("load estimator snapshot: %w", err)
	}
	c.Restore(snapshot)
	return nil
}

// Print logs every (key -> estimated rate) pair at debug level, the
// structured-logging analogue of the original's verbose estimator dump.
func (c *Complementarity) Print() {
	logger := log.WithComponent("estimator")
	snapshot := c.Snapshot()
	logger.Debug().Int("keys", len(snapshot)).Msg("estimator snapshot")
	for k, v := range snapshot {
		logger.Debug().Str("key", k).Float64("rate", v).Msg("estimator entry")
	}
}
