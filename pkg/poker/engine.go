// Package poker implements a storage-backed Texas Hold'em engine. Every
// operation runs against an injected storage.Backend and validates its
// input before the first write, so a rejected action never mutates state;
// there is no in-memory session, so a game can resume from the persisted
// cells alone. Storage faults mid-operation are surfaced to the caller,
// and atomicity across them comes from running each operation inside a
// transactional backend.
package poker

import (
	"fmt"

	"github.com/decred/slog"

	"github.com/chainpoker/chainpoker/pkg/storage"
)

// MaxSeats is the largest number of players a lobby accepts.
const MaxSeats = 9

// GamePhase is the betting street the table is on. NotStarted is the unique
// initial phase and is never re-entered; the game loops hands indefinitely
// while at least two players retain balance.
type GamePhase uint8

const (
	PhaseNotStarted GamePhase = iota
	PhasePreFlop
	PhaseFlop
	PhaseTurn
	PhaseRiver
)

// Next returns the successor street. River wraps back to PreFlop for the
// next hand.
func (p GamePhase) Next() GamePhase {
	switch p {
	case PhaseNotStarted, PhaseRiver:
		return PhasePreFlop
	case PhasePreFlop:
		return PhaseFlop
	case PhaseFlop:
		return PhaseTurn
	default:
		return PhaseRiver
	}
}

// String returns the phase name.
func (p GamePhase) String() string {
	switch p {
	case PhaseNotStarted:
		return "NOT_STARTED"
	case PhasePreFlop:
		return "PRE_FLOP"
	case PhaseFlop:
		return "FLOP"
	case PhaseTurn:
		return "TURN"
	case PhaseRiver:
		return "RIVER"
	default:
		return "UNKNOWN"
	}
}

// ShortBlindPolicy decides what happens when a forced blind exceeds the
// poster's balance. No side pot is ever created.
type ShortBlindPolicy uint8

const (
	// ShortBlindAllIn caps the blind at the poster's balance.
	ShortBlindAllIn ShortBlindPolicy = iota
	// ShortBlindReject refuses to start the hand.
	ShortBlindReject
)

// TableConfig is the immutable per-game configuration, fixed at lobby
// creation.
type TableConfig struct {
	BigBlind         uint64           `json:"big_blind"`
	MinBuyInBB       uint8            `json:"min_buy_in_bb"`
	MaxBuyInBB       uint8            `json:"max_buy_in_bb"`
	Denom            string           `json:"denom"`
	ShortBlindPolicy ShortBlindPolicy `json:"short_blind_policy"`
}

// MinBuyIn returns the smallest accepted buy-in in chips.
func (c TableConfig) MinBuyIn() uint64 {
	return uint64(c.MinBuyInBB) * c.BigBlind
}

// MaxBuyIn returns the largest accepted buy-in in chips.
func (c TableConfig) MaxBuyIn() uint64 {
	return uint64(c.MaxBuyInBB) * c.BigBlind
}

// Coin is an amount of a denominated currency attached to a buy-in.
type Coin struct {
	Denom  string `json:"denom"`
	Amount uint64 `json:"amount"`
}

// State cells. These are key descriptors, not state: all live data resides
// in the Backend passed to each operation.
var (
	cellConfig     = storage.NewItem[TableConfig]("lobby_config")
	cellAdmin      = storage.NewItem[string]("admin")
	cellPhase      = storage.NewItem[GamePhase]("current_state")
	cellPot        = storage.NewItem[uint64]("pot")
	cellMinBet     = storage.NewItem[uint64]("current_min_bet")
	cellTurn       = storage.NewItem[int]("turn_position")
	cellButton     = storage.NewItem[int]("button_position")
	cellLastRaiser = storage.NewItem[int]("last_raiser")
	cellRevealed   = storage.NewItem[int]("revealed_cards")

	mapBalances  = storage.NewMap[uint64]("balances")
	mapHands     = storage.NewMap[HoleCards]("hands")
	mapBets      = storage.NewMap[uint64]("bets")
	mapUsernames = storage.NewMap[string]("usernames")

	listSeats = storage.NewList[string]("all_players")
	listBoard = storage.NewList[Card]("table")
)

// Engine executes game operations against a store. It holds no game state
// of its own.
type Engine struct {
	log   slog.Logger
	seeds SeedSource
}

// EngineConfig configures a new Engine. Zero values fall back to a
// disabled logger and the CSPRNG seed source.
type EngineConfig struct {
	Log   slog.Logger
	Seeds SeedSource
}

// NewEngine creates an engine.
func NewEngine(cfg EngineConfig) *Engine {
	log := cfg.Log
	if log == nil {
		log = slog.Disabled
	}
	seeds := cfg.Seeds
	if seeds == nil {
		seeds = CryptoSeedSource{}
	}
	return &Engine{log: log, seeds: seeds}
}

// NewLobby initialises the store for a fresh lobby: config, admin identity
// and the NotStarted phase. The admin is registered with a username but
// buys in like anyone else.
func (e *Engine) NewLobby(kv storage.Backend, cfg TableConfig, adminID, username string) error {
	if cfg.MinBuyInBB > cfg.MaxBuyInBB {
		return ErrInvalidConfig
	}
	if cfg.BigBlind == 0 {
		return fmt.Errorf("%w: big blind must be positive", ErrInvalidConfig)
	}
	if err := cellConfig.Save(kv, cfg); err != nil {
		return err
	}
	if err := cellAdmin.Save(kv, adminID); err != nil {
		return err
	}
	if err := mapUsernames.Set(kv, adminID, username); err != nil {
		return err
	}
	if err := cellPhase.Save(kv, PhaseNotStarted); err != nil {
		return err
	}
	if err := cellPot.Save(kv, 0); err != nil {
		return err
	}
	e.log.Infof("lobby created: admin=%s big_blind=%d buy-in=%d-%d BB",
		username, cfg.BigBlind, cfg.MinBuyInBB, cfg.MaxBuyInBB)
	return nil
}

// BuyIn seats a player. Only legal before the game starts; the attached
// funds must be a single coin of the lobby denomination inside the
// configured buy-in window.
func (e *Engine) BuyIn(kv storage.Backend, playerID, username string, funds []Coin) error {
	phase, err := cellPhase.Load(kv)
	if err != nil {
		return err
	}
	if phase != PhaseNotStarted {
		return ErrGameAlreadyStarted
	}

	seated, err := listSeats.Len(kv)
	if err != nil {
		return err
	}
	if seated >= MaxSeats {
		return ErrLobbyFull
	}
	if ok, err := mapBalances.Has(kv, playerID); err != nil {
		return err
	} else if ok {
		return ErrAlreadyBoughtIn
	}

	cfg, err := cellConfig.Load(kv)
	if err != nil {
		return err
	}
	if len(funds) != 1 {
		return ErrWrongFundsCount
	}
	if funds[0].Denom != cfg.Denom {
		return fmt.Errorf("%w: only %s is accepted", ErrWrongDenomination, cfg.Denom)
	}
	amount := funds[0].Amount
	if amount < cfg.MinBuyIn() || amount > cfg.MaxBuyIn() {
		return fmt.Errorf("%w: got %d, want %d to %d %s",
			ErrBuyInOutOfRange, amount, cfg.MinBuyIn(), cfg.MaxBuyIn(), cfg.Denom)
	}

	if err := listSeats.Append(kv, playerID); err != nil {
		return err
	}
	if err := mapBalances.Set(kv, playerID, amount); err != nil {
		return err
	}
	if err := mapUsernames.Set(kv, playerID, username); err != nil {
		return err
	}
	e.log.Infof("buy-in: %s seated at %d with %d", username, seated, amount)
	return nil
}

// StartGame begins the first hand with the button at seat zero. Only the
// lobby creator may start, and only once at least two players bought in.
func (e *Engine) StartGame(kv storage.Backend, senderID string) error {
	phase, err := cellPhase.Load(kv)
	if err != nil {
		return err
	}
	if phase != PhaseNotStarted {
		return ErrGameAlreadyStarted
	}
	admin, err := cellAdmin.Load(kv)
	if err != nil {
		return err
	}
	if senderID != admin {
		return ErrNotAdmin
	}
	seated, err := listSeats.Len(kv)
	if err != nil {
		return err
	}
	if seated < 2 {
		return ErrNotEnoughPlayers
	}

	if err := cellPhase.Save(kv, PhasePreFlop); err != nil {
		return err
	}
	return e.startHand(kv, 0)
}

// Withdraw removes the player from the lobby and returns the chip amount
// the custody layer must pay out. It is rejected while the player holds a
// live hand or an outstanding street bet.
func (e *Engine) Withdraw(kv storage.Backend, playerID string) (uint64, error) {
	balance, ok, err := mapBalances.Get(kv, playerID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrNotInGame
	}
	if hasHand, err := mapHands.Has(kv, playerID); err != nil {
		return 0, err
	} else if hasHand {
		return 0, ErrWithdrawMidHand
	}
	if hasBet, err := mapBets.Has(kv, playerID); err != nil {
		return 0, err
	} else if hasBet {
		return 0, ErrWithdrawMidHand
	}

	seats, err := listSeats.All(kv)
	if err != nil {
		return 0, err
	}
	seat := -1
	for i, id := range seats {
		if id == playerID {
			seat = i
			break
		}
	}
	if seat < 0 {
		return 0, ErrNotInGame
	}

	if err := mapBalances.Delete(kv, playerID); err != nil {
		return 0, err
	}
	if err := mapUsernames.Delete(kv, playerID); err != nil {
		return 0, err
	}
	if err := listSeats.Remove(kv, seat); err != nil {
		return 0, err
	}
	if err := e.shiftPointers(kv, seat); err != nil {
		return 0, err
	}
	e.log.Infof("withdraw: %s leaves with %d", playerID, balance)
	return balance, nil
}

// CloseLobby verifies the sender may tear the lobby down: only the admin,
// and only once every player has withdrawn their chips.
func (e *Engine) CloseLobby(kv storage.Backend, senderID string) error {
	admin, err := cellAdmin.Load(kv)
	if err != nil {
		return err
	}
	if senderID != admin {
		return ErrNotAdmin
	}
	n, err := listSeats.Len(kv)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: %d seats occupied", ErrLobbyNotEmpty, n)
	}
	return nil
}

// shiftPointers keeps the seat-index cells consistent after the seat at
// the given index was removed from the seating order.
func (e *Engine) shiftPointers(kv storage.Backend, removed int) error {
	for _, cell := range []storage.Item[int]{cellTurn, cellButton, cellLastRaiser} {
		pos, err := cell.Load(kv)
		if err != nil {
			if storage.IsEmptyCell(err) {
				continue
			}
			return err
		}
		if pos > removed {
			if err := cell.Save(kv, pos-1); err != nil {
				return err
			}
		}
	}
	return nil
}
