package chatws

import "github.com/dkeye/Warden/internal/domain"

// inEnvelope is the superset of all client payloads; Type selects which
// fields matter.
type inEnvelope struct {
	Type  string          `json:"type"`
	Name  string          `json:"name,omitempty"`
	Text  string          `json:"text,omitempty"`
	ID    domain.PlayerID `json:"id,omitempty"`
	Team  domain.Team     `json:"team,omitempty"`
	Admin bool            `json:"admin,omitempty"`
}

type outEnvelope struct {
	Type   string         `json:"type"`
	Text   string         `json:"text,omitempty"`
	Error  string         `json:"error,omitempty"`
	Player *domain.Player `json:"player,omitempty"`
}
