package poker

import (
	"fmt"

	evalpoker "github.com/chehsunliu/poker"

	"github.com/chainpoker/chainpoker/pkg/storage"
)

var evalRankChars = "A23456789TJQK"

// evalCard converts a card to the evaluator's representation.
func evalCard(c Card) evalpoker.Card {
	var suitChar byte
	switch c.Suit() {
	case Hearts:
		suitChar = 'h'
	case Diamonds:
		suitChar = 'd'
	case Clubs:
		suitChar = 'c'
	default:
		suitChar = 's'
	}
	return evalpoker.NewCard(string([]byte{evalRankChars[c.Rank()], suitChar}))
}

// evaluateHand ranks the best five-card combination out of two hole cards
// and the full board. Lower values are better in the evaluator's total
// ordering; ties mean genuinely equal hands.
func evaluateHand(hole HoleCards, board []Card) int32 {
	cards := make([]evalpoker.Card, 0, 7)
	cards = append(cards, evalCard(hole[0]), evalCard(hole[1]))
	for _, c := range board {
		cards = append(cards, evalCard(c))
	}
	return evalpoker.Evaluate(cards)
}

// HandClass describes an evaluated hand for status reporting.
func HandClass(hole HoleCards, board []Card) string {
	return evalpoker.RankString(evaluateHand(hole, board))
}

// settle resolves the hand at showdown. Every non-folded player's hand is
// ranked against the full board; the pot splits evenly between the players
// tied at the best rank, with any indivisible remainder credited to the
// seating-order-first winner. With a single live player the evaluation is
// skipped and the whole pot is theirs. Hands, street bets, the board, the
// reveal count and the pot are cleared unconditionally once the chips have
// moved.
func (e *Engine) settle(kv storage.Backend) error {
	seats, err := listSeats.All(kv)
	if err != nil {
		return err
	}

	type contender struct {
		id   string
		hole HoleCards
	}
	var live []contender
	for _, id := range seats {
		hole, ok, err := mapHands.Get(kv, id)
		if err != nil {
			return err
		}
		if ok {
			live = append(live, contender{id: id, hole: hole})
		}
	}
	if len(live) == 0 {
		return fmt.Errorf("%w: no live hands at showdown", ErrNoEligiblePlayers)
	}

	var winners []string
	if len(live) == 1 {
		winners = []string{live[0].id}
	} else {
		board, err := listBoard.All(kv)
		if err != nil {
			return err
		}
		best := int32(-1)
		for _, c := range live {
			rank := evaluateHand(c.hole, board)
			switch {
			case best < 0 || rank < best:
				best = rank
				winners = winners[:0]
				winners = append(winners, c.id)
			case rank == best:
				winners = append(winners, c.id)
			}
		}
	}

	pot, err := cellPot.Load(kv)
	if err != nil {
		return err
	}
	share := pot / uint64(len(winners))
	remainder := pot % uint64(len(winners))
	for i, id := range winners {
		payout := share
		if i == 0 {
			payout += remainder
		}
		if payout == 0 {
			continue
		}
		balance, _, err := mapBalances.Get(kv, id)
		if err != nil {
			return err
		}
		if err := mapBalances.Set(kv, id, balance+payout); err != nil {
			return err
		}
	}
	e.log.Infof("showdown: pot=%d winners=%v share=%d remainder=%d", pot, winners, share, remainder)

	for _, id := range seats {
		if err := mapHands.Delete(kv, id); err != nil {
			return err
		}
		if err := mapBets.Delete(kv, id); err != nil {
			return err
		}
	}
	if err := listBoard.Clear(kv); err != nil {
		return err
	}
	if err := cellRevealed.Save(kv, 0); err != nil {
		return err
	}
	return cellPot.Save(kv, 0)
}
