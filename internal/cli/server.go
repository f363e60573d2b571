package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cogniquiz-service/internal/config"
	transport "cogniquiz-service/internal/transport/http"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string, envPort string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
	cmd.Flags().StringVar(port, "port", envPort, "port to listen on (overrides server.port)")
	return cmd
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := loadRuntime(ctx, configPath)
	if err != nil {
		return err
	}
	defer rt.Close()
	cfg, log := rt.cfg, rt.log

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	sweeper, err := startSweeper(rt)
	if err != nil {
		return err
	}
	defer func() { <-sweeper.Stop().Done() }()

	wsHandler := transport.NewWSHandler(rt.service, defaultParameters(cfg), log.Named("ws"))
	api := transport.NewAPI(rt.service, log.Named("api"))

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(api, wsHandler, log),
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	go func() {
		log.Info("starting quiz service", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// startSweeper closes sessions idle for longer than sessions.idle_ttl on the
// sessions.sweep_schedule cron spec.
func startSweeper(rt *runtime) (*cron.Cron, error) {
	idle := config.TTLDuration(rt.cfg.Sessions.IdleTTL, 30*time.Minute)
	schedule := rt.cfg.Sessions.SweepSchedule
	if schedule == "" {
		schedule = "@every 1m"
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		rt.service.SweepIdle(idle)
	}); err != nil {
		return nil, err
	}
	c.Start()
	rt.log.Info("idle session sweeper started", zap.String("schedule", schedule), zap.Duration("idle", idle))
	return c, nil
}
