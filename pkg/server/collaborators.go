package server

import (
	"errors"
	"fmt"

	"github.com/chainpoker/chainpoker/pkg/poker"
)

// ErrBadCredential is returned when a credential cannot be resolved to a
// player identity.
var ErrBadCredential = errors.New("credential does not resolve to a player")

// Authenticator resolves an opaque credential to a stable player ID. The
// resolved identity is trusted completely; the game layer performs no
// further identity checks.
type Authenticator interface {
	ResolvePlayer(credential string) (playerID string, err error)
}

// IdentityAuthenticator treats the credential itself as the player ID. It
// is the default for deployments where an outer transport layer has
// already authenticated the caller.
type IdentityAuthenticator struct{}

// ResolvePlayer implements Authenticator.
func (IdentityAuthenticator) ResolvePlayer(credential string) (string, error) {
	if credential == "" {
		return "", ErrBadCredential
	}
	return credential, nil
}

// Custodian moves real funds between a player's house account and chips in
// play. The engine decides amounts and eligibility; the custodian only
// executes the movements.
type Custodian interface {
	// Reserve takes custody of a buy-in before chips are granted.
	Reserve(playerID string, funds []poker.Coin) error
	// Release returns amount to the player, either as a withdrawal
	// payout or as a refund of a failed buy-in.
	Release(playerID string, amount uint64, reason string) error
}

// LedgerCustodian records fund movements on the SQLite account ledger. A
// buy-in debits the player's house balance; payouts and refunds credit it.
type LedgerCustodian struct {
	DB Database
}

// Reserve implements Custodian.
func (c LedgerCustodian) Reserve(playerID string, funds []poker.Coin) error {
	var total uint64
	for _, coin := range funds {
		total += coin.Amount
	}
	return c.DB.AdjustAccountBalance(playerID, -int64(total), "buy-in",
		fmt.Sprintf("buy-in of %d", total))
}

// Release implements Custodian.
func (c LedgerCustodian) Release(playerID string, amount uint64, reason string) error {
	return c.DB.AdjustAccountBalance(playerID, int64(amount), reason,
		fmt.Sprintf("%s of %d", reason, amount))
}
