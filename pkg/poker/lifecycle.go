package poker

import (
	"errors"
	"fmt"

	"github.com/chainpoker/chainpoker/pkg/storage"
)

// startHand deals a fresh hand with the button at the given seat. Every
// seated player with a remaining balance gets two hole cards; five
// community cards are dealt face down (reveal count zero). The small blind
// (half the big blind) posts from the seat clockwise of the button, the big
// blind from the next, and the turn pointer lands on the first eligible
// seat after the big blind.
func (e *Engine) startHand(kv storage.Backend, button int) error {
	cfg, err := cellConfig.Load(kv)
	if err != nil {
		return err
	}
	seats, err := listSeats.All(kv)
	if err != nil {
		return err
	}

	dealt := make([]string, 0, len(seats))
	for _, id := range seats {
		funded, err := mapBalances.Has(kv, id)
		if err != nil {
			return err
		}
		if funded {
			dealt = append(dealt, id)
		}
	}
	if len(dealt) < 1 {
		return fmt.Errorf("%w: nobody left with a balance", ErrNoEligiblePlayers)
	}

	seed, err := e.seeds.HandSeed(2*len(dealt) + 5)
	if err != nil {
		return err
	}
	deck, err := NewDeck(seed)
	if err != nil {
		return err
	}

	for _, id := range dealt {
		first, err := deck.Draw()
		if err != nil {
			return err
		}
		second, err := deck.Draw()
		if err != nil {
			return err
		}
		if err := mapHands.Set(kv, id, HoleCards{first, second}); err != nil {
			return err
		}
	}
	if err := listBoard.Clear(kv); err != nil {
		return err
	}
	for i := 0; i < 5; i++ {
		card, err := deck.Draw()
		if err != nil {
			return err
		}
		if err := listBoard.Append(kv, card); err != nil {
			return err
		}
	}
	if err := cellRevealed.Save(kv, 0); err != nil {
		return err
	}

	if err := cellMinBet.Save(kv, cfg.BigBlind); err != nil {
		return err
	}
	if err := cellButton.Save(kv, button); err != nil {
		return err
	}

	smallBlindSeat, err := e.postBlind(kv, cfg, cfg.BigBlind/2, button+1)
	if err != nil {
		return err
	}
	bigBlindSeat, err := e.postBlind(kv, cfg, cfg.BigBlind, smallBlindSeat+1)
	if err != nil {
		return err
	}
	if err := cellLastRaiser.Save(kv, bigBlindSeat); err != nil {
		return err
	}

	turn, _, err := nextEligible(kv, bigBlindSeat+1)
	if err != nil {
		return err
	}
	if err := cellTurn.Save(kv, turn); err != nil {
		return err
	}

	e.log.Infof("new hand: button=%d players=%d sb_seat=%d bb_seat=%d first_to_act=%d",
		button, len(dealt), smallBlindSeat, bigBlindSeat, turn)
	return nil
}

// postBlind takes a forced bet from the first eligible seat at or after the
// given position and returns that seat. Under the default policy a short
// stack posts all-in for whatever it has; under ShortBlindReject the hand
// refuses to start instead.
func (e *Engine) postBlind(kv storage.Backend, cfg TableConfig, amount uint64, from int) (int, error) {
	seat, id, err := nextEligible(kv, from)
	if err != nil {
		return 0, err
	}
	balance, _, err := mapBalances.Get(kv, id)
	if err != nil {
		return 0, err
	}
	post := amount
	if post > balance {
		if cfg.ShortBlindPolicy == ShortBlindReject {
			return 0, fmt.Errorf("%w: seat %d has %d of %d", ErrShortBlind, seat, balance, amount)
		}
		post = balance
	}
	if err := e.commitBet(kv, id, post, post); err != nil {
		return 0, err
	}
	return seat, nil
}

// advanceStreet moves the table to the next street once a betting round
// closes: it reveals the flop, turn or river, wipes the street bets and
// minimum, and puts the action on the first eligible seat clockwise of the
// button. Closing the river instead settles the pot, starts the next hand
// with the button advanced one seat, and reports that the hand ended — the
// turn pointer then already belongs to the new hand and must not be
// overwritten by the caller. When every live player is all-in no seat can
// act, so the remaining streets run out back to back until the river
// settles.
func (e *Engine) advanceStreet(kv storage.Backend) (handEnded bool, err error) {
	phase, err := cellPhase.Load(kv)
	if err != nil {
		return false, err
	}

	if phase == PhaseRiver {
		if err := e.settle(kv); err != nil {
			return false, err
		}
		if err := cellPhase.Save(kv, PhasePreFlop); err != nil {
			return false, err
		}
		button, err := cellButton.Load(kv)
		if err != nil {
			return false, err
		}
		n, err := listSeats.Len(kv)
		if err != nil {
			return false, err
		}
		if n == 0 {
			return false, fmt.Errorf("%w: empty seating order", ErrNoEligiblePlayers)
		}
		return true, e.startHand(kv, (button+1)%n)
	}

	next := phase.Next()
	if err := cellPhase.Save(kv, next); err != nil {
		return false, err
	}
	var reveal int
	switch next {
	case PhaseFlop:
		reveal = 3
	case PhaseTurn:
		reveal = 4
	case PhaseRiver:
		reveal = 5
	}
	if err := cellRevealed.Save(kv, reveal); err != nil {
		return false, err
	}

	seats, err := listSeats.All(kv)
	if err != nil {
		return false, err
	}
	for _, id := range seats {
		if err := mapBets.Delete(kv, id); err != nil {
			return false, err
		}
	}
	if err := cellMinBet.Save(kv, 0); err != nil {
		return false, err
	}

	button, err := cellButton.Load(kv)
	if err != nil {
		return false, err
	}
	turn, _, err := nextEligible(kv, button+1)
	if errors.Is(err, ErrNoEligiblePlayers) {
		// Every live player is all-in. There is no action on this street
		// either, so keep dealing until the river settles.
		e.log.Debugf("street advanced: phase=%s revealed=%d all-in run-out", next, reveal)
		return e.advanceStreet(kv)
	}
	if err != nil {
		return false, err
	}
	if err := cellTurn.Save(kv, turn); err != nil {
		return false, err
	}
	// Anchor the closure check for the fresh street on the first seat to
	// act, the same role the big blind plays pre-flop.
	if err := cellLastRaiser.Save(kv, turn); err != nil {
		return false, err
	}

	e.log.Debugf("street advanced: phase=%s revealed=%d first_to_act=%d", next, reveal, turn)
	return false, nil
}
