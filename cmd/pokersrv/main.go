// Command pokersrv hosts a poker table with a hot-seat terminal console:
// players share the terminal and the prompt follows whoever is next to
// act. All game state is persisted to SQLite, so an interrupted session
// resumes where it stopped.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/decred/slog"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pterm/pterm"

	"github.com/chainpoker/chainpoker/pkg/poker"
	"github.com/chainpoker/chainpoker/pkg/server"
)

func main() {
	var (
		dbPath     string
		debugLevel string
		bigBlind   uint64
		minBuyIn   uint
		maxBuyIn   uint
		denom      string
	)
	flag.StringVar(&dbPath, "db", "", "Path to SQLite database file (created if missing)")
	flag.StringVar(&debugLevel, "debuglevel", "warn", "Logging level: trace, debug, info, warn, error")
	flag.Uint64Var(&bigBlind, "bigblind", 1_000_000, "Big blind in base units")
	flag.UintVar(&minBuyIn, "minbuyin", 10, "Minimum buy-in in big blinds")
	flag.UintVar(&maxBuyIn, "maxbuyin", 100, "Maximum buy-in in big blinds")
	flag.StringVar(&denom, "denom", "uchip", "Denomination accepted for buy-ins")
	flag.Parse()

	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "chainpoker.sqlite")
	}

	logBackend := slog.NewBackend(os.Stderr)
	log := logBackend.Logger("SRVR")
	if level, ok := slog.LevelFromString(debugLevel); ok {
		log.SetLevel(level)
	}

	db, err := server.NewDatabase(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init db: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	srv, err := server.NewServer(server.Config{DB: db, Log: log})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init server: %v\n", err)
		os.Exit(1)
	}

	cfg := poker.TableConfig{
		BigBlind:   bigBlind,
		MinBuyInBB: uint8(minBuyIn),
		MaxBuyInBB: uint8(maxBuyIn),
		Denom:      denom,
	}

	pterm.DefaultHeader.Println("chainpoker")
	console := &console{srv: srv, cfg: cfg, denom: denom}
	if err := console.run(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

type console struct {
	srv     *server.Server
	cfg     poker.TableConfig
	denom   string
	lobbyID string
	admin   string
}

func (c *console) run() error {
	if err := c.setupLobby(); err != nil {
		return err
	}
	return c.gameLoop()
}

// setupLobby resumes an existing lobby or builds a new one: create, seat
// players, start.
func (c *console) setupLobby() error {
	if ids := c.srv.ListLobbies(); len(ids) > 0 {
		choice, _ := pterm.DefaultInteractiveSelect.
			WithDefaultText("Resume a lobby or create a new one?").
			WithOptions(append([]string{"new lobby"}, ids...)).Show()
		if choice != "new lobby" {
			c.lobbyID = choice
			return nil
		}
	}

	admin, _ := pterm.DefaultInteractiveTextInput.
		WithDefaultText("Admin username").Show()
	admin = strings.TrimSpace(admin)
	if admin == "" {
		return errors.New("a username is required")
	}
	c.admin = admin

	lobbyID, err := c.srv.CreateLobby(admin, admin, c.cfg)
	if err != nil {
		return err
	}
	c.lobbyID = lobbyID
	pterm.Info.Printfln("lobby %s created, buy-in window %d-%d %s",
		lobbyID, c.cfg.MinBuyIn(), c.cfg.MaxBuyIn(), c.denom)

	for {
		name, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText("Seat a player (empty to finish)").Show()
		name = strings.TrimSpace(name)
		if name == "" {
			break
		}
		amountStr, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText(fmt.Sprintf("Buy-in for %s", name)).
			WithDefaultValue(strconv.FormatUint(c.cfg.MinBuyIn(), 10)).Show()
		amount, err := strconv.ParseUint(strings.TrimSpace(amountStr), 10, 64)
		if err != nil {
			pterm.Error.Printfln("bad amount: %v", err)
			continue
		}
		// The console fronts the custody ledger itself: top the account
		// up so the buy-in can be covered.
		if err := c.srv.Deposit(name, amount); err != nil {
			pterm.Error.Println(err)
			continue
		}
		funds := []poker.Coin{{Denom: c.denom, Amount: amount}}
		if err := c.srv.BuyIn(name, c.lobbyID, name, funds); err != nil {
			pterm.Error.Println(err)
			continue
		}
		pterm.Success.Printfln("%s seated with %d", name, amount)
	}

	if err := c.srv.StartGame(admin, c.lobbyID); err != nil {
		return err
	}
	pterm.Success.Println("game started")
	return nil
}

// gameLoop follows the turn pointer, rendering the table for whoever acts
// next and applying their chosen action.
func (c *console) gameLoop() error {
	for {
		status, err := c.srv.GameStatus(c.actor(), c.lobbyID)
		if err != nil {
			return err
		}
		actor := status.CurrentTurn
		if actor == "" {
			return errors.New("no actor to prompt")
		}
		// Re-query as the actor so the hole cards shown are theirs.
		status, err = c.srv.GameStatus(actor, c.lobbyID)
		if err != nil {
			return err
		}
		c.render(actor, status)

		options := []string{"fold", "check", "call", "raise", "status", "quit"}
		choice, _ := pterm.DefaultInteractiveSelect.
			WithDefaultText(fmt.Sprintf("%s, your action", actor)).
			WithOptions(options).Show()

		switch choice {
		case "fold":
			err = c.srv.Fold(actor, c.lobbyID)
		case "check":
			err = c.srv.Check(actor, c.lobbyID)
		case "call":
			err = c.srv.Call(actor, c.lobbyID)
		case "raise":
			amountStr, _ := pterm.DefaultInteractiveTextInput.
				WithDefaultText("Amount to add").Show()
			amount, perr := strconv.ParseUint(strings.TrimSpace(amountStr), 10, 64)
			if perr != nil {
				pterm.Error.Printfln("bad amount: %v", perr)
				continue
			}
			err = c.srv.Raise(actor, c.lobbyID, amount)
		case "status":
			continue
		case "quit":
			pterm.Info.Println("state saved; run again with the same -db to resume")
			return nil
		}
		if err != nil {
			pterm.Error.Println(err)
		}
	}
}

// actor returns any credential usable for the initial turn query.
func (c *console) actor() string {
	if c.admin != "" {
		return c.admin
	}
	return "console"
}

func (c *console) render(actor string, status poker.GameStatus) {
	var board []string
	for _, card := range status.Board {
		board = append(board, card.String())
	}
	boardLine := strings.Join(board, " ")
	if boardLine == "" {
		boardLine = "(face down)"
	}

	var seats []string
	for _, pb := range status.Balances {
		line := fmt.Sprintf("%s: %d", pb.Username, pb.Balance)
		if pb.ID == status.Button {
			line += " (button)"
		}
		seats = append(seats, line)
	}

	hand := "(not in hand)"
	if status.Hand != nil {
		hand = status.Hand.String()
	}

	table := pterm.DefaultBox.WithTitle(" " + status.Phase.String() + " ").Sprintf(
		"board: %s\npot:   %d\nstacks:\n  %s",
		boardLine, status.Pot, strings.Join(seats, "\n  "))
	own := pterm.DefaultBox.WithTitle(" " + actor + " ").Sprintf(
		"hand:    %s\nto call: %d", hand, status.ToCall)
	pterm.DefaultPanel.WithPanels([][]pterm.Panel{
		{{Data: table}},
		{{Data: own}},
	}).Render()
}
