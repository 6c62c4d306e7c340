package poker

import (
	"github.com/chainpoker/chainpoker/pkg/storage"
)

// PlayerBalance pairs a seated player with their chip balance. A busted
// player reports zero.
type PlayerBalance struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Balance  uint64 `json:"balance"`
}

// LobbyStatus is the pre-start view of a lobby.
type LobbyStatus struct {
	Admin    string          `json:"admin"`
	Config   TableConfig     `json:"config"`
	Started  bool            `json:"started"`
	Balances []PlayerBalance `json:"balances"`
}

// GameStatus is the in-game view for one authenticated caller. Hand is nil
// when the caller holds no live hand.
type GameStatus struct {
	Phase       GamePhase       `json:"phase"`
	Balances    []PlayerBalance `json:"balances"`
	Board       []Card          `json:"board"`
	Pot         uint64          `json:"pot"`
	Hand        *HoleCards      `json:"hand,omitempty"`
	CurrentTurn string          `json:"current_turn"`
	Button      string          `json:"button"`
	MinBet      uint64          `json:"min_bet"`
	ToCall      uint64          `json:"to_call"`
}

// seatedBalances collects the seating order with usernames and balances.
func seatedBalances(kv storage.Backend) ([]PlayerBalance, error) {
	seats, err := listSeats.All(kv)
	if err != nil {
		return nil, err
	}
	out := make([]PlayerBalance, 0, len(seats))
	for _, id := range seats {
		balance, _, err := mapBalances.Get(kv, id)
		if err != nil {
			return nil, err
		}
		username, _, err := mapUsernames.Get(kv, id)
		if err != nil {
			return nil, err
		}
		out = append(out, PlayerBalance{ID: id, Username: username, Balance: balance})
	}
	return out, nil
}

// LobbyStatus reports the admin, configuration, seated balances and
// whether the game has started.
func (e *Engine) LobbyStatus(kv storage.Backend) (LobbyStatus, error) {
	var status LobbyStatus

	adminID, err := cellAdmin.Load(kv)
	if err != nil {
		return status, err
	}
	adminName, _, err := mapUsernames.Get(kv, adminID)
	if err != nil {
		return status, err
	}
	cfg, err := cellConfig.Load(kv)
	if err != nil {
		return status, err
	}
	phase, err := cellPhase.Load(kv)
	if err != nil {
		return status, err
	}
	balances, err := seatedBalances(kv)
	if err != nil {
		return status, err
	}

	status.Admin = adminName
	status.Config = cfg
	status.Started = phase != PhaseNotStarted
	status.Balances = balances
	return status, nil
}

// GameStatus reports the table as seen by viewer: all balances, the
// revealed prefix of the board, the pot, the viewer's own hand, whose turn
// and button it is, and what the viewer still owes to call.
func (e *Engine) GameStatus(kv storage.Backend, viewer string) (GameStatus, error) {
	var status GameStatus

	phase, err := cellPhase.Load(kv)
	if err != nil {
		return status, err
	}
	if phase == PhaseNotStarted {
		return status, ErrGameNotStarted
	}
	status.Phase = phase

	if status.Balances, err = seatedBalances(kv); err != nil {
		return status, err
	}

	revealed, err := cellRevealed.Load(kv)
	if err != nil {
		return status, err
	}
	board, err := listBoard.All(kv)
	if err != nil {
		return status, err
	}
	if revealed > len(board) {
		revealed = len(board)
	}
	status.Board = board[:revealed]

	if status.Pot, err = cellPot.Load(kv); err != nil {
		return status, err
	}
	if status.MinBet, err = cellMinBet.Load(kv); err != nil {
		return status, err
	}

	hole, ok, err := mapHands.Get(kv, viewer)
	if err != nil {
		return status, err
	}
	if ok {
		status.Hand = &hole
	}

	seats, err := listSeats.All(kv)
	if err != nil {
		return status, err
	}
	turn, err := cellTurn.Load(kv)
	if err != nil {
		return status, err
	}
	button, err := cellButton.Load(kv)
	if err != nil {
		return status, err
	}
	if turn >= 0 && turn < len(seats) {
		status.CurrentTurn = seats[turn]
	}
	if button >= 0 && button < len(seats) {
		status.Button = seats[button]
	}

	// ToCall only means something for a live hand; spectators and folded
	// players owe nothing.
	if ok {
		bet, _, err := mapBets.Get(kv, viewer)
		if err != nil {
			return status, err
		}
		if status.MinBet > bet {
			status.ToCall = status.MinBet - bet
		}
	}
	return status, nil
}
