package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gofrs/flock"
	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/nhle/tracerx/internal/ai"
	"github.com/nhle/tracerx/internal/api"
	"github.com/nhle/tracerx/internal/app"
	"github.com/nhle/tracerx/internal/auth"
	"github.com/nhle/tracerx/internal/logging"
	"github.com/nhle/tracerx/internal/metrics"
	"github.com/nhle/tracerx/internal/model"
	"github.com/nhle/tracerx/internal/session"
	"github.com/nhle/tracerx/internal/store"
	"github.com/nhle/tracerx/internal/tracker"
	"github.com/nhle/tracerx/internal/ui"
)

var version = "0.1.0"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "login":
			exitOnError(handleLogin(os.Args[2:]))
			return
		case "logout":
			exitOnError(handleLogout(os.Args[2:]))
			return
		case "whoami":
			exitOnError(handleWhoami(os.Args[2:]))
			return
		case "dashboard":
			exitOnError(handleDashboard(os.Args[2:]))
			return
		case "quote":
			exitOnError(handleQuote(os.Args[2:]))
			return
		case "version":
			fmt.Printf("tracerx v%s\n", version)
			return
		case "help", "-h", "--help":
			printHelp()
			return
		}
	}

	fs := flag.NewFlagSet("tracerx", flag.ExitOnError)
	configPath := fs.String("config", model.DefaultConfigPath(), "Path to config file")
	debug := fs.Bool("debug", false, "Log at debug level")
	_ = fs.Parse(os.Args[1:])

	exitOnError(runTUI(*configPath, *debug))
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	help := `tracerx - freelance project tracking in the terminal

Usage:
  tracerx                          Start the TUI
  tracerx login [--email addr]     Sign in and store the session
  tracerx logout                   Forget the stored session
  tracerx whoami                   Show the signed-in user
  tracerx dashboard                Print a dashboard summary
  tracerx quote [--save] <text>    Draft a quotation with Quotie
  tracerx version                  Show version
  tracerx help                     Show this help

Options:
  --config <path>   Config file (default ~/.config/tracerx/config.yaml)
  --debug           Log at debug level

Environment:
  API_BASE_URL      TracerX API root
  AUTH_API_BASE     Auth API root
  GEMINI_API_KEY    Key for the Quotie assistant (also read from .env)

Keybindings:
  Screens:      1-6           Dashboard, projects, tasks, finance, Quotie, quotes
                :             Command palette
                ,             Settings
                ?             Help
                q             Quit

  Lists:        ↑/↓ or j/k    Move cursor
                enter         Open
                n             New item
                /             Search
                f             Cycle filter
                r             Refresh`

	fmt.Println(help)
}

// env is everything a command needs, built from the config file and the
// keyring.
type env struct {
	cfg      *model.AppConfig
	cfgPath  string
	logger   *logging.Logger
	logFile  *os.File
	secrets  session.Store
	sessions *session.Manager
	auth     *auth.Service
	tracker  *tracker.Service
	store    store.Store
}

func setup(configPath string, debug bool) (*env, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, cfgPath: configPath}

	level := logging.ParseLevel(cfg.Log.Level)
	if debug {
		level = logging.ParseLevel("debug")
	}
	e.logFile, err = logging.OpenFile(cfg.Log.Path)
	if err != nil {
		return nil, err
	}
	e.logger = logging.New(logging.Config{Level: level, Writer: e.logFile})
	logging.SetDefault(e.logger)

	secrets, err := session.OpenKeyring(model.ConfigDir())
	if err != nil {
		e.Close()
		return nil, err
	}
	e.secrets = secrets
	e.sessions = session.NewManager(secrets, e.logger)
	if _, err := e.sessions.Restore(); err != nil {
		e.logger.Warn("session restore failed", logging.FieldError, err)
	}

	if cfg.AI.APIKey == "" {
		if key, err := secrets.Get(session.AIKeyName); err == nil {
			cfg.AI.APIKey = key
		}
	}

	client := api.NewClient(cfg.API.BaseURL, e.sessions, cfg.API.Timeout(), e.logger)
	e.auth = auth.NewService(cfg.Auth.BaseURL, e.sessions, cfg.API.Timeout(), e.logger)
	e.tracker = tracker.NewService(client, e.sessions, e.logger)
	if len(cfg.Finance.PaidStatuses) > 0 {
		e.tracker.SetPaidMatcher(metrics.MatchAnyStatus(cfg.Finance.PaidStatuses...))
	}

	return e, nil
}

// openStore opens the quotation database. A failure leaves the store nil
// and the quotes screen disabled.
func (e *env) openStore() {
	s, err := store.NewSQLiteStore(e.cfg.Store.Path)
	if err != nil {
		e.logger.Warn("quotation store unavailable",
			"path", e.cfg.Store.Path, logging.FieldError, err)
		return
	}
	e.store = s
}

func (e *env) Close() {
	if e.store != nil {
		_ = e.store.Close()
	}
	if e.logFile != nil {
		_ = e.logFile.Close()
	}
}

func parseCommon(name string, args []string) (*flag.FlagSet, *string, *bool) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := fs.String("config", model.DefaultConfigPath(), "Path to config file")
	debug := fs.Bool("debug", false, "Log at debug level")
	return fs, configPath, debug
}

func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func handleLogin(args []string) error {
	fs, configPath, debug := parseCommon("login", args)
	email := fs.String("email", "", "Account email")
	_ = fs.Parse(args)

	e, err := setup(*configPath, *debug)
	if err != nil {
		return err
	}
	defer e.Close()

	if *email == "" {
		fmt.Print("Email: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("reading email: %w", err)
		}
		*email = strings.TrimSpace(line)
	}
	fmt.Print("Password: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	if err := auth.ValidateLogin(*email, string(raw)); err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()
	user, err := e.auth.Login(ctx, *email, string(raw))
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s <%s>\n", user.Name, user.Email)
	return nil
}

func handleLogout(args []string) error {
	fs, configPath, debug := parseCommon("logout", args)
	_ = fs.Parse(args)

	e, err := setup(*configPath, *debug)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.auth.Logout(); err != nil {
		return err
	}
	fmt.Println("Signed out")
	return nil
}

func handleWhoami(args []string) error {
	fs, configPath, debug := parseCommon("whoami", args)
	_ = fs.Parse(args)

	e, err := setup(*configPath, *debug)
	if err != nil {
		return err
	}
	defer e.Close()

	if !e.sessions.IsAuthenticated() {
		return errors.New("not signed in; run `tracerx login`")
	}
	ctx, cancel := commandContext()
	defer cancel()
	user, err := e.auth.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s <%s>\n", user.Name, user.Email)
	return nil
}

func handleDashboard(args []string) error {
	fs, configPath, debug := parseCommon("dashboard", args)
	_ = fs.Parse(args)

	e, err := setup(*configPath, *debug)
	if err != nil {
		return err
	}
	defer e.Close()

	if !e.sessions.IsAuthenticated() {
		return errors.New("not signed in; run `tracerx login`")
	}
	ctx, cancel := commandContext()
	defer cancel()
	d, err := e.tracker.LoadDashboard(ctx)
	if err != nil {
		return err
	}

	s := d.Stats
	fmt.Printf("Projects   %d total, %d active, %d completed\n",
		s.Projects.Total, s.Projects.Active, s.Projects.Completed)
	fmt.Printf("Tasks      %d total, %d completed, %d overdue\n",
		s.Tasks.Total, s.Tasks.Completed, s.Tasks.Overdue)
	fmt.Printf("Budget     %s\n", ui.Money(d.Totals.TotalBudget, ""))
	fmt.Printf("Earned     %s\n", ui.Money(d.Totals.TotalEarnings, ""))
	fmt.Printf("Pending    %s\n", ui.Money(d.Totals.Pending, ""))

	if len(d.RecentProjects) > 0 {
		fmt.Println("\nRecent projects")
		for _, p := range d.RecentProjects {
			fmt.Printf("  %-32s %-10s %3d%%\n", ui.Truncate(p.Title, 32), p.Status, p.Progress)
		}
	}
	if len(d.Deadlines) > 0 {
		fmt.Println("\nUpcoming deadlines")
		for _, item := range d.Deadlines {
			fmt.Printf("  %-32s %-12s %s\n", ui.Truncate(item.Title, 32), item.Label, ui.Date(item.Deadline.Deadline))
		}
	}
	if d.OrphanedTasks > 0 {
		fmt.Printf("\n%d task(s) reference missing projects\n", d.OrphanedTasks)
	}
	return nil
}

func handleQuote(args []string) error {
	fs, configPath, debug := parseCommon("quote", args)
	save := fs.Bool("save", false, "Save the quotation locally")
	_ = fs.Parse(args)

	description := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if description == "" {
		return errors.New("usage: tracerx quote [--save] <project description>")
	}

	e, err := setup(*configPath, *debug)
	if err != nil {
		return err
	}
	defer e.Close()

	assistant := ai.New(e.cfg.AI, e.logger)
	if !assistant.Configured() {
		return errors.New("no Gemini API key; set GEMINI_API_KEY or add one in settings")
	}

	ctx, cancel := commandContext()
	defer cancel()
	reply := assistant.GenerateQuotation(ctx, description)
	fmt.Println(reply.Text)
	if reply.Failed || !*save {
		return nil
	}

	e.openStore()
	if e.store == nil {
		return errors.New("quotation store unavailable")
	}
	saved, err := e.store.SaveQuotation(ctx, model.Quotation{
		Title:  model.QuotationTitle(reply.Text),
		Prompt: description,
		Body:   reply.Text,
	})
	if err != nil {
		return err
	}
	fmt.Printf("\nSaved as %q\n", saved.Title)
	return nil
}

// acquireLock takes an exclusive lock so two TUIs never share one
// keyring session.
func acquireLock(dir string) (*flock.Flock, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	lock := flock.New(filepath.Join(dir, "tracerx.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return nil, errors.New("another instance of tracerx is already running")
	}
	return lock, nil
}

func runTUI(configPath string, debug bool) error {
	lock, err := acquireLock(model.ConfigDir())
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	e, err := setup(configPath, debug)
	if err != nil {
		return err
	}
	defer e.Close()
	e.openStore()

	e.logger.Info("starting", "version", version, "config", configPath)
	started := time.Now()

	m := app.New(app.Deps{
		Config:     e.cfg,
		ConfigPath: configPath,
		Sessions:   e.sessions,
		Secrets:    e.secrets,
		Auth:       e.auth,
		Tracker:    e.tracker,
		Assistant:  ai.New(e.cfg.AI, e.logger),
		Store:      e.store,
		Logger:     e.logger,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	e.logger.Info("exiting", "uptime", time.Since(started).Round(time.Second))
	return err
}
