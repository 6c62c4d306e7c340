package poker

import (
	"errors"
	"fmt"

	"github.com/chainpoker/chainpoker/pkg/storage"
)

// ActionKind tags a betting action.
type ActionKind uint8

const (
	ActionFold ActionKind = iota
	ActionCheck
	ActionCall
	ActionRaise
	ActionBet
)

// String returns the action name.
func (k ActionKind) String() string {
	switch k {
	case ActionFold:
		return "fold"
	case ActionCheck:
		return "check"
	case ActionCall:
		return "call"
	case ActionRaise:
		return "raise"
	case ActionBet:
		return "bet"
	default:
		return "unknown"
	}
}

// Action is one betting turn. Amount is only meaningful for raises and
// bets.
type Action struct {
	Kind   ActionKind
	Amount uint64
}

// Fold gives up the hand for the rest of this hand.
func Fold() Action { return Action{Kind: ActionFold} }

// Check passes without committing chips.
func Check() Action { return Action{Kind: ActionCheck} }

// Call matches the current minimum bet.
func Call() Action { return Action{Kind: ActionCall} }

// Raise commits amount additional chips, raising the street minimum.
func Raise(amount uint64) Action { return Action{Kind: ActionRaise, Amount: amount} }

// Bet is an alias surface for Raise: it commits amount chips and sets the
// street minimum the same way.
func Bet(amount uint64) Action { return Action{Kind: ActionBet, Amount: amount} }

// Apply runs one betting turn for actor. The actor must hold a live hand,
// the game must be underway and it must be the actor's turn; violations
// fail before any state is written. On success the actor's chip delta has
// moved from balance to bet and pot, and the turn pointer has advanced —
// closing the street and rolling the hand forward when the action ends the
// betting round.
func (e *Engine) Apply(kv storage.Backend, actor string, act Action) error {
	phase, err := cellPhase.Load(kv)
	if err != nil {
		return err
	}
	if phase == PhaseNotStarted {
		return ErrGameNotStarted
	}
	if live, err := mapHands.Has(kv, actor); err != nil {
		return err
	} else if !live {
		return ErrNoHandInRound
	}

	turn, err := cellTurn.Load(kv)
	if err != nil {
		return err
	}
	seats, err := listSeats.All(kv)
	if err != nil {
		return err
	}
	if turn < 0 || turn >= len(seats) {
		return fmt.Errorf("%w: turn position %d with %d seats", ErrSeatOutOfRange, turn, len(seats))
	}
	if seats[turn] != actor {
		return ErrNotYourTurn
	}

	switch act.Kind {
	case ActionFold:
		err = e.applyFold(kv, actor)
	case ActionCheck:
		err = e.applyCheck(kv, actor)
	case ActionCall:
		err = e.applyCall(kv, actor)
	case ActionRaise, ActionBet:
		err = e.applyRaise(kv, actor, turn, act.Amount)
	default:
		err = fmt.Errorf("unknown action kind %d", act.Kind)
	}
	if err != nil {
		return err
	}

	e.log.Debugf("action: seat=%d actor=%s %s amount=%d", turn, actor, act.Kind, act.Amount)
	return e.moveTurn(kv, turn)
}

// applyFold clears the actor's hand; chips already committed stay in the
// pot.
func (e *Engine) applyFold(kv storage.Backend, actor string) error {
	return mapHands.Delete(kv, actor)
}

// applyCheck is legal only when the actor's cumulative street bet already
// equals the current minimum. It records that bet explicitly: a written
// zero is distinct from "has not acted" and is what lets a checked-around
// street close.
func (e *Engine) applyCheck(kv storage.Backend, actor string) error {
	minBet, err := cellMinBet.Load(kv)
	if err != nil {
		return err
	}
	cur, _, err := mapBets.Get(kv, actor)
	if err != nil {
		return err
	}
	if cur < minBet {
		return ErrCannotCheck
	}
	return mapBets.Set(kv, actor, cur)
}

// applyCall commits the difference between the current minimum and the
// actor's existing street bet. No partial call is modeled: a short stack
// fails with ErrInsufficientChips.
func (e *Engine) applyCall(kv storage.Backend, actor string) error {
	minBet, err := cellMinBet.Load(kv)
	if err != nil {
		return err
	}
	cur, _, err := mapBets.Get(kv, actor)
	if err != nil {
		return err
	}
	owed := minBet - cur
	balance, _, err := mapBalances.Get(kv, actor)
	if err != nil {
		return err
	}
	if owed > balance {
		return fmt.Errorf("%w to call %d", ErrInsufficientChips, owed)
	}
	return e.commitBet(kv, actor, owed, minBet)
}

// applyRaise commits amount chips; the actor's new cumulative street bet
// becomes the minimum every live player must match, and the actor becomes
// the last raiser. A raise that leaves the cumulative bet under the
// current minimum is rejected, never treated as an implicit fold.
func (e *Engine) applyRaise(kv storage.Backend, actor string, seat int, amount uint64) error {
	balance, _, err := mapBalances.Get(kv, actor)
	if err != nil {
		return err
	}
	if amount > balance {
		return fmt.Errorf("%w to bet %d", ErrInsufficientChips, amount)
	}
	cur, _, err := mapBets.Get(kv, actor)
	if err != nil {
		return err
	}
	total := cur + amount
	minBet, err := cellMinBet.Load(kv)
	if err != nil {
		return err
	}
	if total < minBet {
		return fmt.Errorf("%w: %d of %d", ErrBetBelowMinimum, total, minBet)
	}
	if err := cellMinBet.Save(kv, total); err != nil {
		return err
	}
	if err := cellLastRaiser.Save(kv, seat); err != nil {
		return err
	}
	return e.commitBet(kv, actor, amount, total)
}

// commitBet moves amount from the player's balance into the pot and records
// the player's new cumulative street bet. A balance that reaches zero is
// removed outright: absence is the zero-balance signal the turn tracker
// keys off.
func (e *Engine) commitBet(kv storage.Backend, player string, amount, totalStreetBet uint64) error {
	balance, _, err := mapBalances.Get(kv, player)
	if err != nil {
		return err
	}
	remaining := balance - amount
	if remaining > 0 {
		if err := mapBalances.Set(kv, player, remaining); err != nil {
			return err
		}
	} else {
		if err := mapBalances.Delete(kv, player); err != nil {
			return err
		}
	}
	if err := mapBets.Set(kv, player, totalStreetBet); err != nil {
		return err
	}
	pot, err := cellPot.Load(kv)
	if err != nil {
		return err
	}
	return cellPot.Save(kv, pot+amount)
}

// moveTurn advances the turn pointer to the next eligible seat after the
// actor. The street closes when action has come back around with nothing
// left to call — the next actor holds an explicit street bet equal to the
// current minimum — or when the next seat is the last raiser. On closure
// the lifecycle decides the final turn pointer instead. When no eligible
// seat remains every live player is all-in, so the street closes and the
// hand runs out.
func (e *Engine) moveTurn(kv storage.Backend, current int) error {
	next, nextID, err := nextEligible(kv, current+1)
	if errors.Is(err, ErrNoEligiblePlayers) {
		_, err = e.advanceStreet(kv)
		return err
	}
	if err != nil {
		return err
	}

	lastRaiser, err := cellLastRaiser.Load(kv)
	if err != nil {
		return err
	}
	closed := next == lastRaiser
	if !closed {
		minBet, err := cellMinBet.Load(kv)
		if err != nil {
			return err
		}
		bet, acted, err := mapBets.Get(kv, nextID)
		if err != nil {
			return err
		}
		closed = acted && bet == minBet
	}

	if !closed {
		return cellTurn.Save(kv, next)
	}
	_, err = e.advanceStreet(kv)
	return err
}
