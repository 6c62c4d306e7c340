package server

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/chainpoker/chainpoker/pkg/server/internal/db"
	"github.com/chainpoker/chainpoker/pkg/storage"
)

// ErrInsufficientFunds is returned when an account movement would drive the
// balance negative.
var ErrInsufficientFunds = db.ErrInsufficientFunds

// Database defines the persistence boundary: the custody ledger plus the
// per-lobby game state, transactionally.
type Database interface {
	// GetAccountBalance returns the current house balance of a player.
	// An account that was never touched reports zero.
	GetAccountBalance(playerID string) (int64, error)
	// AdjustAccountBalance moves delta on a player's house balance and
	// records the movement in the transaction log. A negative resulting
	// balance fails with ErrInsufficientFunds and records nothing.
	AdjustAccountBalance(playerID string, delta int64, txType, description string) error

	// Update runs fn against the lobby's game state inside a write
	// transaction: every cell write fn performs commits atomically, or
	// none do when fn errors.
	Update(lobbyID string, fn func(kv storage.Backend) error) error
	// View runs fn against a consistent read snapshot of the lobby's
	// game state.
	View(lobbyID string, fn func(kv storage.Backend) error) error

	// AllLobbyIDs returns every lobby with persisted state.
	AllLobbyIDs() ([]string, error)
	// DeleteLobby drops all persisted state of a lobby.
	DeleteLobby(lobbyID string) error

	// Close closes the database connection.
	Close() error
}

// NewDatabase opens (creating if missing) the SQLite database at dbPath.
func NewDatabase(dbPath string) (Database, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %v", err)
	}
	return db.NewDB(dbPath)
}
