package app

import (
	"fmt"

	"cogniquiz-service/internal/domain"
)

// NavEvent is a navigation request to the phase router.
type NavEvent string

const (
	NavBegin           NavEvent = "begin"
	NavComplete        NavEvent = "complete"
	NavFail            NavEvent = "fail"
	NavStartNew        NavEvent = "startNew"
	NavShowLeaderboard NavEvent = "showLeaderboard"
	NavShowSettings    NavEvent = "showSettings"
	NavBack            NavEvent = "back"
)

var transitions = map[domain.Phase]map[NavEvent]domain.Phase{
	domain.PhaseBriefing: {
		NavBegin:           domain.PhaseGame,
		NavShowLeaderboard: domain.PhaseLeaderboard,
		NavShowSettings:    domain.PhaseSettings,
	},
	domain.PhaseGame: {
		NavComplete: domain.PhaseResults,
		NavFail:     domain.PhaseBriefing,
	},
	domain.PhaseResults: {
		NavStartNew:        domain.PhaseBriefing,
		NavShowLeaderboard: domain.PhaseLeaderboard,
	},
	domain.PhaseLeaderboard: {
		NavBack: domain.PhaseBriefing,
	},
	domain.PhaseSettings: {
		NavBack: domain.PhaseBriefing,
	},
}

// Transition returns the phase reached from "from" on ev.
func Transition(from domain.Phase, ev NavEvent) (domain.Phase, error) {
	if next, ok := transitions[from][ev]; ok {
		return next, nil
	}
	return from, fmt.Errorf("%w: %s from %s", domain.ErrInvalidTransition, ev, from)
}
