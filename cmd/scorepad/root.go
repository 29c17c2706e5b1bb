package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/scorepadhq/scorepad/internal/api"
	"github.com/scorepadhq/scorepad/internal/auth"
	"github.com/scorepadhq/scorepad/internal/config"
	"github.com/scorepadhq/scorepad/internal/connectivity"
	"github.com/scorepadhq/scorepad/internal/judging"
	"github.com/scorepadhq/scorepad/internal/logging"
	"github.com/scorepadhq/scorepad/internal/store"
	"github.com/scorepadhq/scorepad/internal/syncer"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "scorepad",
	Short: "Offline-resilient judging terminal for live competitions",
	Long: `scorepad is the judging device client for live competitions.

Scores are cached in a local SQLite database and submitted to the scoring
service when the venue network allows it. Writes made while offline queue
locally and drain automatically on reconnect, so a judge never loses work
to venue Wi-Fi.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real deployments use scorepad.yaml or
		// SCOREPAD_* environment variables.
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ./scorepad.yaml or ~/.scorepad/scorepad.yaml)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "judging", Title: "Judging Commands:"},
		&cobra.Group{ID: "sync", Title: "Sync Commands:"},
		&cobra.Group{ID: "session", Title: "Session Commands:"},
	)
}

// openStore opens the device database and ensures the schema exists.
// Callers own Close.
func openStore() (*store.Store, error) {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open device database: %w", err)
	}
	if err := st.InitSchema(); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return st, nil
}

// app bundles the wired components a command needs. Commands that only
// touch the local database use openStore directly instead.
type app struct {
	store   *store.Store
	keeper  *auth.Keeper
	monitor *connectivity.Monitor
	fileMon *connectivity.FileMonitor
	client  *api.Client
	service *judging.Service
	logger  *log.Logger
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
}

// buildApp wires the store, credential keeper, connectivity monitor,
// dispatcher, and judging service. The monitor starts from the state
// file's current value when one is configured, otherwise assumes online
// and lets network failures queue writes anyway.
func buildApp() (*app, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}

	keeper, err := auth.NewKeeper(st)
	if err != nil {
		st.Close()
		return nil, err
	}

	var (
		monitor *connectivity.Monitor
		fileMon *connectivity.FileMonitor
	)
	if cfg.NetStateFile != "" {
		fileMon, err = connectivity.NewFileMonitor(cfg.NetStateFile)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", cfg.NetStateFile, err)
		}
		monitor = fileMon.Monitor
	} else {
		monitor = connectivity.NewMonitor(true)
	}

	logger := logging.New(logging.Output(cfg.LogFile), "scorepad")

	client, err := api.NewClient(api.Config{
		BaseURL:     cfg.ServerURL,
		Credentials: keeper,
		Signal:      monitor,
		Store:       st,
		Logger:      logging.New(logging.Output(cfg.LogFile), "api"),
	})
	if err != nil {
		st.Close()
		return nil, err
	}

	service, err := judging.NewService(st, client, logging.New(logging.Output(cfg.LogFile), "judging"))
	if err != nil {
		st.Close()
		return nil, err
	}

	return &app{
		store:   st,
		keeper:  keeper,
		monitor: monitor,
		fileMon: fileMon,
		client:  client,
		service: service,
		logger:  logger,
	}, nil
}

// buildSyncer creates the drain orchestrator for an app, with the
// judging service registered so cached scores flip status as their
// queued writes resolve.
func buildSyncer(a *app, onPass func([]syncer.Result)) (*syncer.Syncer, error) {
	s, err := syncer.New(syncer.Config{
		Store:      a.store,
		Transport:  a.client,
		Monitor:    a.monitor,
		Interval:   cfg.SyncInterval,
		MaxRetries: cfg.MaxRetries,
		OnPass:     onPass,
		Logger:     logging.New(logging.Output(cfg.LogFile), "sync"),
	})
	if err != nil {
		return nil, err
	}
	s.AddListener(a.service)
	return s, nil
}

func httpClient() *http.Client {
	return &http.Client{}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
