package api

import (
	"context"
	"time"
)

// MaintenanceState is the storefront-wide maintenance flag. EndTime is only
// meaningful while Active is true; it is zero when the backend reports no
// countdown.
type MaintenanceState struct {
	Active  bool
	EndTime time.Time
}

// MaintenanceStatus polls the remote maintenance flag.
func (c *Client) MaintenanceStatus(ctx context.Context) (MaintenanceState, error) {
	var raw remoteMaintenance
	if err := c.get(ctx, "/api/settings/maintenance", nil, &raw); err != nil {
		return MaintenanceState{}, err
	}
	return raw.toState(), nil
}

type remoteMaintenance struct {
	MaintenanceMode    bool  `json:"maintenanceMode"`
	MaintenanceEndTime int64 `json:"maintenanceEndTime"`
}

func (r remoteMaintenance) toState() MaintenanceState {
	s := MaintenanceState{Active: r.MaintenanceMode}
	if r.MaintenanceEndTime > 0 {
		s.EndTime = time.UnixMilli(r.MaintenanceEndTime)
	}
	return s
}
