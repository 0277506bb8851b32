package dto

import (
	"encoding/json"
	"path/filepath"

	"wildwatch/internal/model"
)

// EventInfo is an event as returned by the admin API.
type EventInfo struct {
	model.Event
	SnapshotURL string `json:"snapshot_url"`
}

// MarshalJSON writes the timestamp in the stored second-resolution layout.
func (e EventInfo) MarshalJSON() ([]byte, error) {
	type Alias EventInfo
	return json.Marshal(&struct {
		Alias
		Timestamp string `json:"timestamp"`
	}{
		Alias:     (Alias)(e),
		Timestamp: e.FormattedTimestamp(),
	})
}

// NewEventInfos converts events, pointing each snapshot at /snapshots/{name}.
func NewEventInfos(events []model.Event) []EventInfo {
	infos := make([]EventInfo, 0, len(events))
	for _, ev := range events {
		info := EventInfo{Event: ev}
		if ev.ImagePath != "" {
			info.SnapshotURL = "/snapshots/" + filepath.Base(ev.ImagePath)
		}
		infos = append(infos, info)
	}
	return infos
}
