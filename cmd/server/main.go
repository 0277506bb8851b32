package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"wildwatch/internal/app"
	"wildwatch/internal/config"
	"wildwatch/internal/logger"
	"wildwatch/internal/repository/sqlite"
	"wildwatch/internal/repository/sqlite/migrations"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore loads the config and opens the event store for admin commands.
// The caller must defer store.Close().
func openStore() (*sqlite.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	store, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return store, nil
}

var rootCmd = &cobra.Command{
	Use:   "wildwatch",
	Short: "Wildlife motion detection and alerting",
	RunE:  runServer,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the capture loop and the admin API",
	RunE:  runServer,
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logger.NewLogger(cfg.LogDirectory)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Close()

	a, err := app.NewApp(cfg, log)
	if err != nil {
		log.Error("Startup failed: %v", err)
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	quitCtx, quit := context.WithCancel(ctx)
	defer quit()
	go app.WatchQuit(os.Stdin, quit, log)

	return a.Run(quitCtx)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()

		version, dirty, err := migrations.Version(db.Conn())
		if err != nil {
			return err
		}
		fmt.Printf("Database %s at schema version %d (dirty=%v)\n", cfg.DatabasePath, version, dirty)
		return nil
	},
}

// events command
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect detection events",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent events, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		events, err := store.ListRecentEvents(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("No events recorded.")
			return nil
		}
		for _, ev := range events {
			fmt.Printf("%5d  %s  %-16s %s\n", ev.ID, ev.FormattedTimestamp(), ev.DetectedObject, ev.ImagePath)
		}
		return nil
	},
}

// watchlist command
var watchlistCmd = &cobra.Command{
	Use:   "watchlist",
	Short: "Manage labels that trigger the local alert",
}

var watchlistAddCmd = &cobra.Command{
	Use:   "add <animal>",
	Short: "Add an animal to the watchlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		names, err := store.AddWatchlistEntry(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printList(names)
		return nil
	},
}

var watchlistRemoveCmd = &cobra.Command{
	Use:   "remove <animal>",
	Short: "Remove an animal from the watchlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		names, err := store.RemoveWatchlistEntry(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printList(names)
		return nil
	},
}

var watchlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the watchlist",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		names, err := store.ListWatchlist(cmd.Context())
		if err != nil {
			return err
		}
		printList(names)
		return nil
	},
}

// endpoints command
var endpointsCmd = &cobra.Command{
	Use:   "endpoints",
	Short: "Manage push notification tokens",
}

var endpointsRegisterCmd = &cobra.Command{
	Use:   "register <token>",
	Short: "Register a push token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.RegisterEndpoint(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("ok")
		return nil
	},
}

var endpointsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered push tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		tokens, err := store.ListEndpoints(cmd.Context())
		if err != nil {
			return err
		}
		printList(tokens)
		return nil
	},
}

func printList(items []string) {
	if len(items) == 0 {
		fmt.Println("(empty)")
		return
	}
	for _, item := range items {
		fmt.Println(item)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(migrateCmd)

	eventsCmd.AddCommand(eventsListCmd)
	eventsListCmd.Flags().IntP("limit", "n", sqlite.MaxEventsLimit, "Maximum number of events to show")
	rootCmd.AddCommand(eventsCmd)

	watchlistCmd.AddCommand(watchlistAddCmd)
	watchlistCmd.AddCommand(watchlistRemoveCmd)
	watchlistCmd.AddCommand(watchlistListCmd)
	rootCmd.AddCommand(watchlistCmd)

	endpointsCmd.AddCommand(endpointsRegisterCmd)
	endpointsCmd.AddCommand(endpointsListCmd)
	rootCmd.AddCommand(endpointsCmd)
}
