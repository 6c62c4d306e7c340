package poker

import (
	"errors"
	"testing"

	"github.com/chainpoker/chainpoker/pkg/storage"
)

// zeroSeed deals cards in ascending order: every draw chunk is zero, so the
// shuffle never swaps and the deck comes off the top 0, 1, 2, ...
var zeroSeed = SeedFunc(func(draws int) ([]byte, error) {
	return make([]byte, draws*SeedBytesPerDraw), nil
})

var testConfig = TableConfig{
	BigBlind:   1_000_000,
	MinBuyInBB: 10,
	MaxBuyInBB: 100,
	Denom:      "uchip",
}

func chips(amount uint64) []Coin {
	return []Coin{{Denom: "uchip", Amount: amount}}
}

func newTestEngine() *Engine {
	return NewEngine(EngineConfig{Seeds: zeroSeed})
}

// newTestLobby creates a two-player lobby with the worked-example stakes:
// big blind one million, both players buying in for fifty big blinds.
func newTestLobby(t *testing.T) (*Engine, *storage.MemBackend) {
	t.Helper()
	e := newTestEngine()
	kv := storage.NewMemBackend()
	if err := e.NewLobby(kv, testConfig, "alice", "Alice"); err != nil {
		t.Fatalf("NewLobby: %v", err)
	}
	if err := e.BuyIn(kv, "alice", "Alice", chips(50_000_000)); err != nil {
		t.Fatalf("BuyIn alice: %v", err)
	}
	if err := e.BuyIn(kv, "bob", "Bob", chips(50_000_000)); err != nil {
		t.Fatalf("BuyIn bob: %v", err)
	}
	return e, kv
}

func mustBalance(t *testing.T, kv storage.Backend, id string) uint64 {
	t.Helper()
	balance, _, err := mapBalances.Get(kv, id)
	if err != nil {
		t.Fatalf("balance %s: %v", id, err)
	}
	return balance
}

func mustPot(t *testing.T, kv storage.Backend) uint64 {
	t.Helper()
	pot, err := cellPot.Load(kv)
	if err != nil {
		t.Fatalf("pot: %v", err)
	}
	return pot
}

func TestNewLobbyValidatesConfig(t *testing.T) {
	e := newTestEngine()

	bad := testConfig
	bad.MinBuyInBB = 50
	bad.MaxBuyInBB = 10
	if err := e.NewLobby(storage.NewMemBackend(), bad, "alice", "Alice"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("inverted buy-in window: expected ErrInvalidConfig, got %v", err)
	}

	bad = testConfig
	bad.BigBlind = 0
	if err := e.NewLobby(storage.NewMemBackend(), bad, "alice", "Alice"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("zero big blind: expected ErrInvalidConfig, got %v", err)
	}
}

func TestBuyInValidation(t *testing.T) {
	e := newTestEngine()
	kv := storage.NewMemBackend()
	if err := e.NewLobby(kv, testConfig, "alice", "Alice"); err != nil {
		t.Fatalf("NewLobby: %v", err)
	}

	cases := []struct {
		name  string
		funds []Coin
		want  error
	}{
		{"no coin", nil, ErrWrongFundsCount},
		{"two coins", []Coin{{"uchip", 1}, {"uchip", 2}}, ErrWrongFundsCount},
		{"wrong denom", []Coin{{"doge", 50_000_000}}, ErrWrongDenomination},
		{"below minimum", chips(9_999_999), ErrBuyInOutOfRange},
		{"above maximum", chips(100_000_001), ErrBuyInOutOfRange},
	}
	for _, tc := range cases {
		if err := e.BuyIn(kv, "bob", "Bob", tc.funds); !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	// Boundary amounts are accepted.
	if err := e.BuyIn(kv, "bob", "Bob", chips(10_000_000)); err != nil {
		t.Errorf("minimum buy-in rejected: %v", err)
	}
	if err := e.BuyIn(kv, "carol", "Carol", chips(100_000_000)); err != nil {
		t.Errorf("maximum buy-in rejected: %v", err)
	}

	if err := e.BuyIn(kv, "bob", "Bob", chips(50_000_000)); !errors.Is(err, ErrAlreadyBoughtIn) {
		t.Errorf("double buy-in: expected ErrAlreadyBoughtIn, got %v", err)
	}
}

func TestBuyInLobbyFull(t *testing.T) {
	e := newTestEngine()
	kv := storage.NewMemBackend()
	if err := e.NewLobby(kv, testConfig, "p0", "P0"); err != nil {
		t.Fatalf("NewLobby: %v", err)
	}
	ids := []string{"p0", "p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8"}
	for _, id := range ids {
		if err := e.BuyIn(kv, id, id, chips(50_000_000)); err != nil {
			t.Fatalf("BuyIn %s: %v", id, err)
		}
	}
	if err := e.BuyIn(kv, "p9", "p9", chips(50_000_000)); !errors.Is(err, ErrLobbyFull) {
		t.Errorf("tenth player: expected ErrLobbyFull, got %v", err)
	}
}

func TestStartGameAuthorization(t *testing.T) {
	e, kv := newTestLobby(t)

	if err := e.StartGame(kv, "bob"); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("non-admin start: expected ErrNotAdmin, got %v", err)
	}
	if err := e.StartGame(kv, "alice"); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if err := e.StartGame(kv, "alice"); !errors.Is(err, ErrGameAlreadyStarted) {
		t.Errorf("double start: expected ErrGameAlreadyStarted, got %v", err)
	}
	if err := e.BuyIn(kv, "carol", "Carol", chips(50_000_000)); !errors.Is(err, ErrGameAlreadyStarted) {
		t.Errorf("buy-in after start: expected ErrGameAlreadyStarted, got %v", err)
	}
}

func TestStartGameNeedsTwoPlayers(t *testing.T) {
	e := newTestEngine()
	kv := storage.NewMemBackend()
	if err := e.NewLobby(kv, testConfig, "alice", "Alice"); err != nil {
		t.Fatalf("NewLobby: %v", err)
	}
	if err := e.BuyIn(kv, "alice", "Alice", chips(50_000_000)); err != nil {
		t.Fatalf("BuyIn: %v", err)
	}
	if err := e.StartGame(kv, "alice"); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Errorf("expected ErrNotEnoughPlayers, got %v", err)
	}
}

// TestStartGameBlindsAndDeal checks the opening hand state: the button sits
// at seat zero, the small blind posts from seat one, the big blind wraps
// back to seat zero, and the first action lands on the seat after the big
// blind.
func TestStartGameBlindsAndDeal(t *testing.T) {
	e, kv := newTestLobby(t)
	if err := e.StartGame(kv, "alice"); err != nil {
		t.Fatalf("StartGame: %v", err)
	}

	phase, err := cellPhase.Load(kv)
	if err != nil {
		t.Fatalf("phase: %v", err)
	}
	if phase != PhasePreFlop {
		t.Errorf("expected PRE_FLOP, got %s", phase)
	}

	if got := mustBalance(t, kv, "bob"); got != 49_500_000 {
		t.Errorf("small blind: bob balance = %d, want 49500000", got)
	}
	if got := mustBalance(t, kv, "alice"); got != 49_000_000 {
		t.Errorf("big blind: alice balance = %d, want 49000000", got)
	}
	if got := mustPot(t, kv); got != 1_500_000 {
		t.Errorf("pot = %d, want 1500000", got)
	}

	minBet, err := cellMinBet.Load(kv)
	if err != nil {
		t.Fatalf("min bet: %v", err)
	}
	if minBet != 1_000_000 {
		t.Errorf("min bet = %d, want the big blind", minBet)
	}

	turn, err := cellTurn.Load(kv)
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if turn != 1 {
		t.Errorf("first to act should be seat 1 (after the big blind), got %d", turn)
	}
	button, err := cellButton.Load(kv)
	if err != nil {
		t.Fatalf("button: %v", err)
	}
	if button != 0 {
		t.Errorf("button should start at seat 0, got %d", button)
	}

	// Everyone holds two cards, all distinct across hands and board.
	seen := make(map[Card]bool)
	for _, id := range []string{"alice", "bob"} {
		hole, ok, err := mapHands.Get(kv, id)
		if err != nil || !ok {
			t.Fatalf("hand %s: ok=%v err=%v", id, ok, err)
		}
		for _, c := range hole {
			if seen[c] {
				t.Errorf("card %v dealt twice", c)
			}
			seen[c] = true
		}
	}
	board, err := listBoard.All(kv)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	if len(board) != 5 {
		t.Fatalf("expected 5 community cards, got %d", len(board))
	}
	for _, c := range board {
		if seen[c] {
			t.Errorf("card %v dealt twice", c)
		}
		seen[c] = true
	}
	revealed, err := cellRevealed.Load(kv)
	if err != nil {
		t.Fatalf("revealed: %v", err)
	}
	if revealed != 0 {
		t.Errorf("no community cards should be revealed pre-flop, got %d", revealed)
	}
}

func TestWithdrawBeforeStart(t *testing.T) {
	e, kv := newTestLobby(t)

	amount, err := e.Withdraw(kv, "bob")
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if amount != 50_000_000 {
		t.Errorf("withdraw amount = %d, want 50000000", amount)
	}

	seats, err := listSeats.All(kv)
	if err != nil {
		t.Fatalf("seats: %v", err)
	}
	if len(seats) != 1 || seats[0] != "alice" {
		t.Errorf("seats after withdraw = %v, want [alice]", seats)
	}
	if ok, _ := mapBalances.Has(kv, "bob"); ok {
		t.Error("bob's balance should be gone after withdraw")
	}
	if _, err := e.Withdraw(kv, "bob"); !errors.Is(err, ErrNotInGame) {
		t.Errorf("double withdraw: expected ErrNotInGame, got %v", err)
	}
}

func TestWithdrawMidHandRejected(t *testing.T) {
	e, kv := newTestLobby(t)
	if err := e.StartGame(kv, "alice"); err != nil {
		t.Fatalf("StartGame: %v", err)
	}

	if _, err := e.Withdraw(kv, "bob"); !errors.Is(err, ErrWithdrawMidHand) {
		t.Errorf("live hand: expected ErrWithdrawMidHand, got %v", err)
	}
}

// A player who folded and carries no street bet may leave mid-game; the
// seat-index cells shift down past the vacated seat.
func TestWithdrawAfterFold(t *testing.T) {
	e := newTestEngine()
	kv := storage.NewMemBackend()
	if err := e.NewLobby(kv, testConfig, "alice", "Alice"); err != nil {
		t.Fatalf("NewLobby: %v", err)
	}
	for _, id := range []string{"alice", "bob", "carol"} {
		if err := e.BuyIn(kv, id, id, chips(50_000_000)); err != nil {
			t.Fatalf("BuyIn %s: %v", id, err)
		}
	}
	if err := e.StartGame(kv, "alice"); err != nil {
		t.Fatalf("StartGame: %v", err)
	}

	// Button 0, SB seat 1, BB seat 2; first to act is seat 0 (alice).
	if err := e.Apply(kv, "alice", Fold()); err != nil {
		t.Fatalf("fold: %v", err)
	}
	// Still pre-flop: alice holds no bet (she only folded), so she may go.
	amount, err := e.Withdraw(kv, "alice")
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if amount != 50_000_000 {
		t.Errorf("withdraw amount = %d, want 50000000", amount)
	}

	seats, err := listSeats.All(kv)
	if err != nil {
		t.Fatalf("seats: %v", err)
	}
	if len(seats) != 2 || seats[0] != "bob" || seats[1] != "carol" {
		t.Errorf("seats after withdraw = %v, want [bob carol]", seats)
	}
	// Turn pointed at seat 1 (bob), who is now seat 0.
	turn, err := cellTurn.Load(kv)
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if turn != 0 {
		t.Errorf("turn pointer should shift to 0, got %d", turn)
	}
	if seats[turn] != "bob" {
		t.Errorf("turn should still be bob's, got %s", seats[turn])
	}
}
