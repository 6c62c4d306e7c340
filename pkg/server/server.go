// Package server hosts poker lobbies on top of the storage-backed engine.
// It owns the boundary collaborators the engine stays agnostic of:
// authentication, fund custody, randomness and persistence.
package server

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/decred/slog"
	"github.com/google/uuid"
	"github.com/thoas/go-funk"

	"github.com/chainpoker/chainpoker/pkg/poker"
	"github.com/chainpoker/chainpoker/pkg/storage"
)

// ErrUnknownLobby is returned for operations on a lobby ID the server does
// not host.
var ErrUnknownLobby = errors.New("unknown lobby")

// Config configures a Server. DB is required; the other collaborators
// default to IdentityAuthenticator, the SQLite ledger custodian, the
// CSPRNG seed source and a disabled logger.
type Config struct {
	DB        Database
	Log       slog.Logger
	Auth      Authenticator
	Custodian Custodian
	Seeds     poker.SeedSource
}

// lobby serializes actions on one table. Exactly one action or query runs
// against a lobby's state at a time.
type lobby struct {
	mu sync.Mutex
}

// Server hosts many lobbies, each an independent game whose state lives in
// the database.
type Server struct {
	log       slog.Logger
	db        Database
	auth      Authenticator
	custodian Custodian
	engine    *poker.Engine

	mu      sync.RWMutex
	lobbies map[string]*lobby
}

// NewServer creates a server and re-registers every lobby with persisted
// state, so mid-hand games resume across restarts.
func NewServer(cfg Config) (*Server, error) {
	if cfg.DB == nil {
		return nil, errors.New("server: database is required")
	}
	log := cfg.Log
	if log == nil {
		log = slog.Disabled
	}
	auth := cfg.Auth
	if auth == nil {
		auth = IdentityAuthenticator{}
	}
	custodian := cfg.Custodian
	if custodian == nil {
		custodian = LedgerCustodian{DB: cfg.DB}
	}

	s := &Server{
		log:       log,
		db:        cfg.DB,
		auth:      auth,
		custodian: custodian,
		engine:    poker.NewEngine(poker.EngineConfig{Log: log, Seeds: cfg.Seeds}),
		lobbies:   make(map[string]*lobby),
	}

	ids, err := s.db.AllLobbyIDs()
	if err != nil {
		return nil, fmt.Errorf("server: load lobbies: %w", err)
	}
	for _, id := range ids {
		s.lobbies[id] = &lobby{}
	}
	if len(ids) > 0 {
		log.Infof("restored %d lobbies from the database", len(ids))
	}
	return s, nil
}

// getLobby returns the registered lobby or ErrUnknownLobby.
func (s *Server) getLobby(lobbyID string) (*lobby, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lobbies[lobbyID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLobby, lobbyID)
	}
	return l, nil
}

// ListLobbies returns the IDs of every hosted lobby in sorted order.
func (s *Server) ListLobbies() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := funk.Keys(s.lobbies).([]string)
	sort.Strings(ids)
	return ids
}

// OpenLobbies returns the IDs of lobbies still gathering players, i.e.
// those whose game has not started. Lobbies whose status cannot be read
// are skipped.
func (s *Server) OpenLobbies() []string {
	return funk.FilterString(s.ListLobbies(), func(id string) bool {
		status, err := s.LobbyStatus(id)
		return err == nil && !status.Started
	})
}

// CreateLobby creates a fresh lobby with the caller as admin and returns
// its ID. The admin still buys in like anyone else.
func (s *Server) CreateLobby(credential, username string, cfg poker.TableConfig) (string, error) {
	playerID, err := s.auth.ResolvePlayer(credential)
	if err != nil {
		return "", err
	}

	lobbyID := uuid.NewString()
	err = s.db.Update(lobbyID, func(kv storage.Backend) error {
		return s.engine.NewLobby(kv, cfg, playerID, username)
	})
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.lobbies[lobbyID] = &lobby{}
	s.mu.Unlock()
	s.log.Infof("lobby %s created by %s", lobbyID, username)
	return lobbyID, nil
}

// Deposit credits a player's house account. It is the top-up entry point
// feeding later buy-ins.
func (s *Server) Deposit(credential string, amount uint64) error {
	playerID, err := s.auth.ResolvePlayer(credential)
	if err != nil {
		return err
	}
	return s.db.AdjustAccountBalance(playerID, int64(amount), "deposit",
		fmt.Sprintf("deposit of %d", amount))
}

// AccountBalance reports a player's house balance.
func (s *Server) AccountBalance(credential string) (int64, error) {
	playerID, err := s.auth.ResolvePlayer(credential)
	if err != nil {
		return 0, err
	}
	return s.db.GetAccountBalance(playerID)
}

// BuyIn takes custody of the attached funds and seats the player. A buy-in
// the engine rejects is refunded in full.
func (s *Server) BuyIn(credential, lobbyID, username string, funds []poker.Coin) error {
	playerID, err := s.auth.ResolvePlayer(credential)
	if err != nil {
		return err
	}
	l, err := s.getLobby(lobbyID)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := s.custodian.Reserve(playerID, funds); err != nil {
		return err
	}
	err = s.db.Update(lobbyID, func(kv storage.Backend) error {
		return s.engine.BuyIn(kv, playerID, username, funds)
	})
	if err != nil {
		var refund uint64
		for _, coin := range funds {
			refund += coin.Amount
		}
		if rerr := s.custodian.Release(playerID, refund, "refund"); rerr != nil {
			s.log.Errorf("refund of rejected buy-in for %s failed: %v", playerID, rerr)
		}
		return err
	}
	return nil
}

// StartGame begins the first hand. Restricted to the lobby admin.
func (s *Server) StartGame(credential, lobbyID string) error {
	playerID, err := s.auth.ResolvePlayer(credential)
	if err != nil {
		return err
	}
	l, err := s.getLobby(lobbyID)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	return s.db.Update(lobbyID, func(kv storage.Backend) error {
		return s.engine.StartGame(kv, playerID)
	})
}

// act runs one betting action under the lobby lock, in one transaction.
func (s *Server) act(credential, lobbyID string, action poker.Action) error {
	playerID, err := s.auth.ResolvePlayer(credential)
	if err != nil {
		return err
	}
	l, err := s.getLobby(lobbyID)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	return s.db.Update(lobbyID, func(kv storage.Backend) error {
		return s.engine.Apply(kv, playerID, action)
	})
}

// Fold gives up the caller's hand.
func (s *Server) Fold(credential, lobbyID string) error {
	return s.act(credential, lobbyID, poker.Fold())
}

// Check passes without committing chips.
func (s *Server) Check(credential, lobbyID string) error {
	return s.act(credential, lobbyID, poker.Check())
}

// Call matches the current minimum bet.
func (s *Server) Call(credential, lobbyID string) error {
	return s.act(credential, lobbyID, poker.Call())
}

// Raise commits amount additional chips and raises the street minimum.
func (s *Server) Raise(credential, lobbyID string, amount uint64) error {
	return s.act(credential, lobbyID, poker.Raise(amount))
}

// Bet commits amount chips, setting the street minimum.
func (s *Server) Bet(credential, lobbyID string, amount uint64) error {
	return s.act(credential, lobbyID, poker.Bet(amount))
}

// Withdraw removes the caller from the lobby and pays their remaining
// chips back to the house account.
func (s *Server) Withdraw(credential, lobbyID string) error {
	playerID, err := s.auth.ResolvePlayer(credential)
	if err != nil {
		return err
	}
	l, err := s.getLobby(lobbyID)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	var amount uint64
	err = s.db.Update(lobbyID, func(kv storage.Backend) error {
		amount, err = s.engine.Withdraw(kv, playerID)
		return err
	})
	if err != nil {
		return err
	}
	if err := s.custodian.Release(playerID, amount, "withdraw"); err != nil {
		// The chips already left the table; surface the custody failure
		// loudly instead of losing it.
		s.log.Errorf("payout of %d to %s failed: %v", amount, playerID, err)
		return err
	}
	return nil
}

// LobbyStatus reports the pre-game view of a lobby.
func (s *Server) LobbyStatus(lobbyID string) (poker.LobbyStatus, error) {
	var status poker.LobbyStatus
	l, err := s.getLobby(lobbyID)
	if err != nil {
		return status, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	err = s.db.View(lobbyID, func(kv storage.Backend) error {
		status, err = s.engine.LobbyStatus(kv)
		return err
	})
	return status, err
}

// GameStatus reports the in-game view for the authenticated caller,
// including their private hole cards.
func (s *Server) GameStatus(credential, lobbyID string) (poker.GameStatus, error) {
	var status poker.GameStatus
	playerID, err := s.auth.ResolvePlayer(credential)
	if err != nil {
		return status, err
	}
	l, err := s.getLobby(lobbyID)
	if err != nil {
		return status, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	err = s.db.View(lobbyID, func(kv storage.Backend) error {
		status, err = s.engine.GameStatus(kv, playerID)
		return err
	})
	return status, err
}

// CloseLobby deletes a finished lobby's persisted state. Only the admin
// may close it, and only while no player holds chips on the table.
func (s *Server) CloseLobby(credential, lobbyID string) error {
	playerID, err := s.auth.ResolvePlayer(credential)
	if err != nil {
		return err
	}
	l, err := s.getLobby(lobbyID)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	err = s.db.View(lobbyID, func(kv storage.Backend) error {
		return s.engine.CloseLobby(kv, playerID)
	})
	if err != nil {
		return err
	}
	if err := s.db.DeleteLobby(lobbyID); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.lobbies, lobbyID)
	s.mu.Unlock()
	s.log.Infof("lobby %s closed by %s", lobbyID, playerID)
	return nil
}
