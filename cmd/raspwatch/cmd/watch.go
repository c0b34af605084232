package cmd

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"raspbot-backend/lib/scrapers/kis"
	"raspbot-backend/lib/serviceutil"
	"raspbot-backend/lib/telemetry"
	"raspbot-backend/services/schedule"
	"raspbot-backend/services/snapshots"
	"raspbot-backend/services/watcher"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(watchCmd)
}

// staticSubscriptions serves the subscription list straight from the
// config file.
type staticSubscriptions struct {
	subs []watcher.Subscription
}

func (s staticSubscriptions) ActiveSubscriptions(ctx context.Context) ([]watcher.Subscription, error) {
	return s.subs, nil
}

// slogNotifier writes change notifications to the log. Delivery
// transports plug in behind the watcher.Notifier interface instead.
type slogNotifier struct{}

func (slogNotifier) NotifyChanges(ctx context.Context, sub watcher.Subscription, n watcher.ChangeNotification) error {
	for _, change := range n.Changes {
		slog.InfoContext(
			ctx, "schedule changed",
			"subscriber", sub.SubscriberID,
			"entity", n.Entity,
			"date", n.Date,
			"kind", change.Kind,
			"time", change.Time,
			"fields", change.Fields,
		)
	}
	slog.InfoContext(
		ctx, "notification issued",
		"subscriber", sub.SubscriberID,
		"entity", n.Entity,
		"date", n.Date,
		"changes", len(n.Changes),
		"view_token", n.ViewToken,
	)
	return nil
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Polls the schedules of the configured subscriptions and logs changes.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		tel, err := telemetry.SetupFromEnv(ctx, "raspwatch")
		if err != nil {
			slog.WarnContext(ctx, "telemetry disabled", "err", err)
		} else {
			defer tel.Shutdown(context.Background())
			telemetry.InstrumentPerfStats(ctx)
		}

		config, err := readConfig()
		if err != nil {
			serviceutil.Fatal("read config", err)
		}
		if len(config.Subscriptions) == 0 {
			serviceutil.Fatal("no subscriptions configured", errors.New("config.json5 has an empty subscriptions list"))
		}

		database, err := openDatabase(config)
		if err != nil {
			serviceutil.Fatal("open database", err)
		}
		defer database.Close()

		client, err := newClient(config)
		if err != nil {
			serviceutil.Fatal("create portal client", err)
		}

		subs := make([]watcher.Subscription, 0, len(config.Subscriptions))
		for _, s := range config.Subscriptions {
			kind := kis.EntityGroup
			if s.Kind == string(kis.EntityTeacher) {
				kind = kis.EntityTeacher
			}
			subs = append(subs, watcher.Subscription{
				SubscriberID: s.Subscriber,
				Entity:       s.Entity,
				Kind:         kind,
			})
		}

		w := watcher.New(watcher.Options{
			Schedule:      schedule.NewService(client),
			Snapshots:     snapshots.NewStore(database),
			Subscriptions: staticSubscriptions{subs: subs},
			Notifier:      slogNotifier{},
			Interval:      time.Duration(config.IntervalMinutes) * time.Minute,
		})

		slog.InfoContext(ctx, "watcher started", "subscriptions", len(subs))
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serviceutil.Fatal("watcher stopped", err)
		}
	},
}
