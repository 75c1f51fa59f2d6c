package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/skapsec/internal/history"
	"github.com/ziadkadry99/skapsec/internal/preferences"
	"github.com/ziadkadry99/skapsec/internal/server"
	"github.com/ziadkadry99/skapsec/internal/web"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Serve the SkapSec web app",
	Long: `Starts the SkapSec web server: the analyzer and compare pages, the
live websocket channel, JSON export and a proxy to the scoring service.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.ListenPort = serverPort
		}

		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		srv := server.New(server.Config{
			Port:           cfg.ListenPort,
			AllowedOrigins: cfg.AllowedOrigins,
			AllowAll:       cfg.AllowAllOrigins,
		}, database)

		site, err := web.New(
			newScoringClient(cfg),
			preferences.NewStore(database),
			history.NewStore(database, cfg.HistoryLimit),
			web.Options{PublicOrigin: cfg.PublicOrigin},
		)
		if err != nil {
			return fmt.Errorf("loading web templates: %w", err)
		}
		site.RegisterRoutes(srv.Router())

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "skapsec server %s starting on port %d\n", Version, cfg.ListenPort)
		fmt.Fprintf(os.Stderr, "  Scoring service: %s\n", cfg.ScoringURL)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", database.Path())

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 0, "port to listen on (overrides listen_port)")
	rootCmd.AddCommand(serverCmd)
}
