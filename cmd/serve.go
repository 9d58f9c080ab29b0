package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"menuscript/pkg/control"
	"menuscript/pkg/gateway"
	"menuscript/pkg/metrics"
	"menuscript/pkg/session"
)

var (
	servePublish bool
	serveHTTP    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the menu fixture",
	Long: "Claims the control service on the bus and waits for publishMenu, walk, " +
		"popActivatedAction, unpublishMenu and quit calls. The same calls are served over HTTP " +
		"when the gateway is enabled.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadRuntime(cmd, "cmd.serve", os.Stderr)
		if err != nil {
			return err
		}
		if serveHTTP {
			cfg.Gateway.Enabled = true
		}

		sc, err := loadScript(cfg.Script)
		if err != nil {
			return err
		}

		conn, err := openConnection(cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := conn.Close(); err != nil {
				log.Warn("Failed to close bus connection", "error", err)
			}
		}()
		if conn.dbus == nil && !cfg.Gateway.Enabled {
			return errors.New("the memory bus has no control surface; enable the gateway with --http")
		}

		recorder := metrics.New()
		sess, err := session.New(conn, sc.Queue(), session.Options{
			MenuService: cfg.Bus.MenuService,
			MenuPath:    cfg.Bus.MenuPath,
			Logger:      log,
			Metrics:     recorder,
		})
		if err != nil {
			return err
		}

		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go func() {
			if err := sess.Run(runCtx); err != nil {
				log.Error("Session loop failed", "error", err)
			}
		}()

		if conn.dbus != nil {
			withdraw, err := conn.dbus.ServeControl(control.NewSurface(sess, log), cfg.Bus.ControlService)
			if err != nil {
				stop()
				return fmt.Errorf("serve control surface: %w", err)
			}
			defer func() {
				if err := withdraw(); err != nil {
					log.Warn("Failed to withdraw control surface", "error", err)
				}
			}()
		}

		gatewayErr := make(chan error, 1)
		if cfg.Gateway.Enabled {
			svc, err := gateway.NewService(cfg.Gateway, sess, recorder.Handler(), log)
			if err != nil {
				stop()
				return err
			}
			go func() { gatewayErr <- svc.Run(runCtx) }()
		}

		if servePublish {
			if err := sess.Publish(runCtx); err != nil {
				stop()
				return fmt.Errorf("publish menu: %w", err)
			}
		}

		log.Info("Fixture ready",
			"script", sc.Name,
			"operations", len(sc.Steps),
			"bus", cfg.Bus.Kind,
			"control_service", cfg.Bus.ControlService,
			"gateway", cfg.Gateway.Enabled,
		)

		select {
		case <-sess.Done():
			log.Info("Fixture stopped")
			return nil
		case err := <-gatewayErr:
			stop()
			<-sess.Done()
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&servePublish, "publish", false, "publish the menu right away")
	serveCmd.Flags().BoolVar(&serveHTTP, "http", false, "serve the HTTP gateway regardless of config")
}
