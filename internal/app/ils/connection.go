package ils

import (
	"context"
	"log/slog"
	"slices"
)

// offlineMode is what templates see when the ILS cannot be reached.
const offlineMode = "ils-offline"

// Connection is the application's handle on the configured driver.
type Connection struct {
	driver Driver
}

func NewConnection(d Driver) *Connection {
	return &Connection{driver: d}
}

func (c *Connection) DriverName() string { return c.driver.Name() }

func (c *Connection) CheckCapability(name string) bool {
	return slices.Contains(c.driver.Capabilities(), name)
}

// OfflineMode is "ils-offline" while no usable driver is configured and
// empty otherwise.
func (c *Connection) OfflineMode() string {
	if _, ok := c.driver.(NoILS); ok {
		return offlineMode
	}
	return ""
}

func (c *Connection) Status(ctx context.Context, id string) ([]HoldingStatus, error) {
	st, err := c.driver.Status(ctx, id)
	if err != nil {
		slog.Warn("ils status failed", "driver", c.driver.Name(), "id", id, "err", err)
		return nil, err
	}
	return st, nil
}
