package poker

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chainpoker/chainpoker/pkg/storage"
)

// card is a test shorthand for NewCard.
func card(r Rank, s Suit) Card { return NewCard(r, s) }

// seatShowdown lays out a table mid-river by writing the cells directly:
// seating order, live hands, full board and pot.
func seatShowdown(t *testing.T, kv storage.Backend, pot uint64, board []Card, hands map[string]*HoleCards, order []string) {
	t.Helper()
	for _, id := range order {
		require.NoError(t, listSeats.Append(kv, id))
		if hole := hands[id]; hole != nil {
			require.NoError(t, mapHands.Set(kv, id, *hole))
			require.NoError(t, mapBets.Set(kv, id, 0))
		}
	}
	require.NoError(t, listBoard.Clear(kv))
	for _, c := range board {
		require.NoError(t, listBoard.Append(kv, c))
	}
	require.NoError(t, cellRevealed.Save(kv, len(board)))
	require.NoError(t, cellPot.Save(kv, pot))
}

func TestSettleBestHandWins(t *testing.T) {
	e := newTestEngine()
	kv := storage.NewMemBackend()

	board := []Card{
		card(Two, Hearts), card(Seven, Diamonds), card(Nine, Clubs),
		card(Jack, Spades), card(Four, Diamonds),
	}
	seatShowdown(t, kv, 2_000_000, board, map[string]*HoleCards{
		"alice": {card(Ace, Hearts), card(Ace, Spades)}, // pair of aces
		"bob":   {card(King, Hearts), card(Queen, Diamonds)},
	}, []string{"alice", "bob"})
	require.NoError(t, mapBalances.Set(kv, "alice", 10_000_000))
	require.NoError(t, mapBalances.Set(kv, "bob", 10_000_000))

	require.NoError(t, e.settle(kv))

	balance, _, err := mapBalances.Get(kv, "alice")
	require.NoError(t, err)
	require.EqualValues(t, 12_000_000, balance, "aces should take the whole pot")
	balance, _, err = mapBalances.Get(kv, "bob")
	require.NoError(t, err)
	require.EqualValues(t, 10_000_000, balance)
}

func TestSettleSplitPotRemainderToFirstSeat(t *testing.T) {
	e := newTestEngine()
	kv := storage.NewMemBackend()

	// A nine-high straight flush on the board plays for everyone; no hole
	// card improves it, so all three tie.
	board := []Card{
		card(Five, Hearts), card(Six, Hearts), card(Seven, Hearts),
		card(Eight, Hearts), card(Nine, Hearts),
	}
	seatShowdown(t, kv, 1_000_001, board, map[string]*HoleCards{
		"alice": {card(Ace, Spades), card(Two, Spades)},
		"bob":   {card(Ace, Diamonds), card(Two, Diamonds)},
		"carol": {card(Ace, Clubs), card(Two, Clubs)},
	}, []string{"alice", "bob", "carol"})
	for _, id := range []string{"alice", "bob", "carol"} {
		require.NoError(t, mapBalances.Set(kv, id, 1_000_000))
	}

	require.NoError(t, e.settle(kv))

	// 1000001 / 3 = 333333 each; the remainder of 2 goes to the winner
	// earliest in seating order.
	wantBalances := map[string]uint64{
		"alice": 1_333_335,
		"bob":   1_333_333,
		"carol": 1_333_333,
	}
	for id, want := range wantBalances {
		balance, _, err := mapBalances.Get(kv, id)
		require.NoError(t, err)
		require.EqualValues(t, want, balance, "balance of %s", id)
	}
}

func TestSettleSingleLivePlayerSkipsEvaluation(t *testing.T) {
	e := newTestEngine()
	kv := storage.NewMemBackend()

	// Only bob still holds a hand; alice folded earlier. No board needed:
	// an uncontested pot is awarded without ranking anything.
	seatShowdown(t, kv, 3_000_000, nil, map[string]*HoleCards{
		"bob": {card(Two, Hearts), card(Seven, Clubs)},
	}, []string{"alice", "bob"})
	require.NoError(t, mapBalances.Set(kv, "alice", 5_000_000))
	require.NoError(t, mapBalances.Set(kv, "bob", 5_000_000))

	require.NoError(t, e.settle(kv))

	balance, _, err := mapBalances.Get(kv, "bob")
	require.NoError(t, err)
	require.EqualValues(t, 8_000_000, balance)
	balance, _, err = mapBalances.Get(kv, "alice")
	require.NoError(t, err)
	require.EqualValues(t, 5_000_000, balance)
}

func TestSettleClearsHandState(t *testing.T) {
	e := newTestEngine()
	kv := storage.NewMemBackend()

	board := []Card{
		card(Two, Hearts), card(Seven, Diamonds), card(Nine, Clubs),
		card(Jack, Spades), card(Four, Diamonds),
	}
	seatShowdown(t, kv, 1_000_000, board, map[string]*HoleCards{
		"alice": {card(Ace, Hearts), card(Ace, Spades)},
		"bob":   {card(King, Hearts), card(Queen, Diamonds)},
	}, []string{"alice", "bob"})

	require.NoError(t, e.settle(kv))

	for _, id := range []string{"alice", "bob"} {
		ok, err := mapHands.Has(kv, id)
		require.NoError(t, err)
		require.False(t, ok, "hand of %s should be cleared", id)
		ok, err = mapBets.Has(kv, id)
		require.NoError(t, err)
		require.False(t, ok, "bet of %s should be cleared", id)
	}
	n, err := listBoard.Len(kv)
	require.NoError(t, err)
	require.Zero(t, n, "board should be cleared")
	revealed, err := cellRevealed.Load(kv)
	require.NoError(t, err)
	require.Zero(t, revealed)
	pot, err := cellPot.Load(kv)
	require.NoError(t, err)
	require.Zero(t, pot)
}

func TestSettleWinnerWithEmptyBalance(t *testing.T) {
	e := newTestEngine()
	kv := storage.NewMemBackend()

	// An all-in winner has no balance entry; the payout recreates it.
	seatShowdown(t, kv, 4_000_000, nil, map[string]*HoleCards{
		"bob": {card(Two, Hearts), card(Seven, Clubs)},
	}, []string{"alice", "bob"})

	require.NoError(t, e.settle(kv))

	balance, ok, err := mapBalances.Get(kv, "bob")
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 4_000_000, balance)
}

func TestHandClass(t *testing.T) {
	board := []Card{
		card(Five, Hearts), card(Six, Hearts), card(Seven, Hearts),
		card(Eight, Hearts), card(Nine, Hearts),
	}
	hole := HoleCards{card(Ace, Spades), card(Two, Spades)}
	require.Equal(t, "Straight Flush", HandClass(hole, board))

	board = []Card{
		card(Two, Hearts), card(Seven, Diamonds), card(Nine, Clubs),
		card(Jack, Spades), card(Four, Diamonds),
	}
	hole = HoleCards{card(Ace, Hearts), card(Ace, Spades)}
	require.Equal(t, "Pair", HandClass(hole, board))
}
