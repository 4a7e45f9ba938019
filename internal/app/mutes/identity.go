package mutes

import (
	"strconv"
	"strings"

	"github.com/dkeye/Warden/internal/domain"
)

// ParseIdentifier turns user input into a player id. It accepts a bare
// non-negative number ("12") or a "#"-prefixed one ("#12"); everything
// else reports false. It never panics.
func ParseIdentifier(raw string) (domain.PlayerID, bool) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "#")
	if trimmed == "" {
		return 0, false
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil || n < 0 {
		return 0, false
	}
	return domain.PlayerID(n), true
}
