package poker

import (
	"fmt"

	"github.com/chainpoker/chainpoker/pkg/storage"
)

// nextEligible returns the first seat at or after start (cyclically,
// wrapping exactly once) whose occupant still holds a live hand this street
// and a nonzero balance. A start index past the end of the seating order is
// taken modulo the current seat count.
//
// ErrNoEligiblePlayers signals a bookkeeping bug: a hand always has at
// least one live contender by the time this runs.
func nextEligible(kv storage.Backend, start int) (int, string, error) {
	seats, err := listSeats.All(kv)
	if err != nil {
		return 0, "", err
	}
	n := len(seats)
	if n == 0 {
		return 0, "", fmt.Errorf("%w: empty seating order", ErrNoEligiblePlayers)
	}
	if start < 0 {
		return 0, "", fmt.Errorf("%w: start %d", ErrSeatOutOfRange, start)
	}
	start %= n

	for i := 0; i < n; i++ {
		pos := (start + i) % n
		id := seats[pos]
		live, err := mapHands.Has(kv, id)
		if err != nil {
			return 0, "", err
		}
		if !live {
			continue
		}
		funded, err := mapBalances.Has(kv, id)
		if err != nil {
			return 0, "", err
		}
		if !funded {
			continue
		}
		return pos, id, nil
	}
	return 0, "", ErrNoEligiblePlayers
}
