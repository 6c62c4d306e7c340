package poker

import "errors"

// Sequencing errors. Always recoverable by retrying at the correct time;
// they never mutate state.
var (
	ErrGameNotStarted     = errors.New("the game has not started yet")
	ErrGameAlreadyStarted = errors.New("the game has already started")
	ErrNotYourTurn        = errors.New("it is not your turn to bet")
	ErrNoHandInRound      = errors.New("you do not have a hand in this round")
)

// Validation errors. Reported verbatim to the caller, no mutation performed.
var (
	ErrCannotCheck       = errors.New("you are not currently able to check")
	ErrInsufficientChips = errors.New("you do not have enough chips")
	ErrBetBelowMinimum   = errors.New("bet is below the current minimum")
	ErrBuyInOutOfRange   = errors.New("buy-in amount is outside the allowed range")
	ErrWrongDenomination = errors.New("unsupported denomination")
	ErrWrongFundsCount   = errors.New("exactly one coin must be attached")
	ErrLobbyFull         = errors.New("the lobby is already full")
	ErrAlreadyBoughtIn   = errors.New("you have already bought in")
	ErrNotInGame         = errors.New("you are not part of this game")
	ErrNotAdmin          = errors.New("only the lobby creator can do that")
	ErrNotEnoughPlayers  = errors.New("insufficient number of players")
	ErrWithdrawMidHand   = errors.New("withdraw is only allowed with no live hand and no outstanding bet")
	ErrShortBlind        = errors.New("player cannot cover the forced blind")
	ErrLobbyNotEmpty     = errors.New("players are still seated")
	ErrInvalidConfig     = errors.New("min buy-in must be less than or equal to the max buy-in")
)

// Invariant-violation errors. These indicate a bookkeeping bug rather than
// bad input; they are surfaced as explicit failures, never panics.
var (
	ErrNoEligiblePlayers = errors.New("no eligible players found")
	ErrSeatOutOfRange    = errors.New("seat index out of range")
)

// Resource errors. Fatal to the hand: dealing is blocked rather than
// producing truncated or garbage hands.
var (
	ErrInsufficientEntropy = errors.New("randomness seed missing, malformed or exhausted")
)
