package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/rubiojr/omnibox/pkg/api"
	"github.com/rubiojr/omnibox/pkg/config"
	"github.com/rubiojr/omnibox/pkg/core"
	"github.com/rubiojr/omnibox/pkg/log"
)

// ServeCommand creates the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the search API and websocket sessions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "Address to listen on (overrides [server] listen)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, c.String("config"), c.String("listen"))
		},
	}
}

// serve runs the HTTP API until SIGINT or SIGTERM. The configuration file is
// watched; prefix and permission changes apply to connected sessions, SIGHUP
// forces a reload and rescans installed apps.
func serve(ctx context.Context, configPath, listen string) error {
	rt, err := openRuntime(ctx, configPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			fmt.Printf("Warning: failed to close database: %v\n", err)
		}
	}()

	logger := log.ForService("serve")
	if listen == "" {
		listen = rt.cfg.Server.Listen
	}

	server := api.NewServer(rt.dispatcher, rt.opts)
	server.SetLauncher(rt.apps)
	mux := http.NewServeMux()
	server.RegisterRoutes(mux)
	httpServer := &http.Server{
		Addr:              listen,
		Handler:           api.CorsMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher := config.NewWatcher(configPath, rt.cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := watcher.Run(gctx); err != nil {
			logger.Warnf("config reload disabled: %v", err)
		}
		return nil
	})
	g.Go(func() error {
		server.FollowSettings(gctx, watcher)
		return nil
	})
	g.Go(func() error {
		followPermissions(gctx, watcher, server)
		return nil
	})
	g.Go(func() error {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-hup:
				logger.Infof("received SIGHUP, reloading configuration and rescanning apps")
				if err := watcher.Reload(); err != nil {
					logger.Errorf("failed to reload configuration: %v", err)
				}
				if err := rt.apps.Catalog().Refresh(gctx); err != nil {
					logger.Errorf("failed to rescan apps: %v", err)
				}
			}
		}
	})
	g.Go(func() error {
		logger.Infof("listening on http://%s", listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		fmt.Println("\nShutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// followPermissions applies [permissions] changes from reloaded configs and
// re-runs the sessions waiting on them.
func followPermissions(ctx context.Context, watcher *config.Watcher, server *api.Server) {
	configs, stop := watcher.Configs()
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-configs:
			if !ok {
				return
			}
			granted := make(map[core.Permission]bool)
			for _, p := range cfg.GrantedPermissions() {
				granted[p] = true
			}
			for _, p := range []core.Permission{core.PermissionContacts, core.PermissionFiles} {
				server.SetPermission(p, granted[p])
			}
		}
	}
}
