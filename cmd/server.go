package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/allocation"
	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/auth"
	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/config"
	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/db"
	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/events"
	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/metrics"
	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/migrate"
	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/store"
	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/web"
)

func newServerCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the booking API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			metrics.Register()

			var (
				st        store.Store
				authStore *auth.Store
			)
			if cfg.DevMode {
				log.Println("dev mode: in-memory store, login gate disabled")
				st = store.NewMemory()
			} else {
				pool, err := db.Open(ctx, cfg.DatabaseURL)
				if err != nil {
					return err
				}
				defer pool.Close()

				if err := db.Ping(ctx, pool); err != nil {
					return fmt.Errorf("db ping: %w", err)
				}
				if migrateUp {
					if err := migrate.Up(ctx, pool); err != nil {
						return err
					}
				}
				st = store.NewPostgres(pool)
				authStore = auth.NewStore(pool, cfg.CookieHashKey, cfg.CookieBlockKey)
			}
			defer st.Close()

			var notify allocation.Notifier = events.Nop{}
			if len(cfg.KafkaBrokers) > 0 {
				k, err := events.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
				if err != nil {
					return err
				}
				defer k.Close()
				notify = k
			}

			engine := allocation.NewEngine(st, notify)
			ws := &web.Server{
				Tables: allocation.NewTableDesk(engine, st),
				Halls:  allocation.NewHallDesk(engine, st),
				Shifts: allocation.NewShiftDesk(engine, st),
				Store:  st,
				Auth:   authStore,
			}
			return web.Start(ctx, cfg.ListenAddr, ws.Routes())
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")
	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}
