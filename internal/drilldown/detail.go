package drilldown

import (
	"github.com/vytor/chessdash/internal/models"
)

// SelectedPlayerDetail is either a LightweightDetail or a ResolvedDetail.
// Callers switch on the concrete type before reading fields.
type SelectedPlayerDetail interface {
	Kind() string
	PlayerName() string
	isSelectedPlayerDetail()
}

// LightweightDetail is built from the clustered point with no fetch.
type LightweightDetail struct {
	Index int
	Point models.PlayerFeaturePoint
}

func (d LightweightDetail) Kind() string       { return "lightweight" }
func (d LightweightDetail) PlayerName() string { return d.Point.Player }
func (LightweightDetail) isSelectedPlayerDetail() {}

// ResolvedDetail carries the player's full stats from a secondary fetch.
type ResolvedDetail struct {
	Index int
	Stats *models.PlayerStats
}

func (d ResolvedDetail) Kind() string { return "resolved" }

func (d ResolvedDetail) PlayerName() string {
	if d.Stats == nil {
		return ""
	}
	return d.Stats.Username
}

func (ResolvedDetail) isSelectedPlayerDetail() {}
