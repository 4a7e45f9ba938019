package domain

type Team int

const (
	TeamSpectators Team = iota
	TeamRed
	TeamBlue
)

func (t Team) String() string {
	switch t {
	case TeamRed:
		return "red"
	case TeamBlue:
		return "blue"
	default:
		return "spectators"
	}
}
