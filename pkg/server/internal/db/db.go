// Package db implements the SQLite persistence layer: the custody ledger
// (accounts and their transaction log) and the per-lobby key-value game
// state the engine runs against.
package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/chainpoker/chainpoker/pkg/storage"
)

// ErrInsufficientFunds is returned when an account movement would drive the
// balance negative.
var ErrInsufficientFunds = errors.New("insufficient account balance")

// DB represents the database connection
type DB struct {
	*sql.DB
}

// NewDB creates a new database connection
func NewDB(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the necessary database tables
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			balance INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			account_id TEXT NOT NULL,
			amount INTEGER NOT NULL,
			type TEXT NOT NULL,
			description TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (account_id) REFERENCES accounts(id)
		)
	`)
	if err != nil {
		return err
	}

	// Per-lobby game state, one row per cell.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS game_state (
			lobby_id TEXT NOT NULL,
			key TEXT NOT NULL,
			value BLOB NOT NULL,
			PRIMARY KEY (lobby_id, key)
		)
	`)
	return err
}

// GetAccountBalance returns the current house balance of a player. An
// account without a row reports zero.
func (db *DB) GetAccountBalance(playerID string) (int64, error) {
	var balance int64
	err := db.QueryRow("SELECT balance FROM accounts WHERE id = ?", playerID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get account balance: %v", err)
	}
	return balance, nil
}

// AdjustAccountBalance moves delta on a player's balance and records the
// movement. It refuses to drive the balance negative.
func (db *DB) AdjustAccountBalance(playerID string, delta int64, txType, description string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var balance int64
	err = tx.QueryRow("SELECT balance FROM accounts WHERE id = ?", playerID).Scan(&balance)
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	if balance+delta < 0 {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, balance, -delta)
	}

	_, err = tx.Exec(`
		INSERT INTO accounts (id, balance)
		VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET balance = balance + ?
	`, playerID, delta, delta)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO transactions (account_id, amount, type, description)
		VALUES (?, ?, ?, ?)
	`, playerID, delta, txType, description)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Update runs fn against the lobby's game state inside a write transaction.
func (db *DB) Update(lobbyID string, fn func(kv storage.Backend) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(&txStore{tx: tx, lobbyID: lobbyID}); err != nil {
		return err
	}
	return tx.Commit()
}

// View runs fn against a read snapshot of the lobby's game state. Writes
// performed by fn are discarded.
func (db *DB) View(lobbyID string, fn func(kv storage.Backend) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	return fn(&txStore{tx: tx, lobbyID: lobbyID})
}

// AllLobbyIDs returns every lobby with persisted state.
func (db *DB) AllLobbyIDs() ([]string, error) {
	rows, err := db.Query("SELECT DISTINCT lobby_id FROM game_state ORDER BY lobby_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteLobby drops all persisted state of a lobby.
func (db *DB) DeleteLobby(lobbyID string) error {
	_, err := db.Exec("DELETE FROM game_state WHERE lobby_id = ?", lobbyID)
	return err
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.DB.Close()
}

// txStore exposes one lobby's rows of the game_state table as a
// storage.Backend bound to a transaction.
type txStore struct {
	tx      *sql.Tx
	lobbyID string
}

// Get implements storage.Backend.
func (s *txStore) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := s.tx.QueryRow(
		"SELECT value FROM game_state WHERE lobby_id = ? AND key = ?",
		s.lobbyID, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set implements storage.Backend.
func (s *txStore) Set(key string, value []byte) error {
	_, err := s.tx.Exec(`
		INSERT INTO game_state (lobby_id, key, value)
		VALUES (?, ?, ?)
		ON CONFLICT(lobby_id, key) DO UPDATE SET value = excluded.value
	`, s.lobbyID, key, value)
	return err
}

// Delete implements storage.Backend.
func (s *txStore) Delete(key string) error {
	_, err := s.tx.Exec(
		"DELETE FROM game_state WHERE lobby_id = ? AND key = ?",
		s.lobbyID, key,
	)
	return err
}
