package cmd

import (
	"database/sql"
	"os"

	"raspbot-backend/lib/configutil"
	configlibsql "raspbot-backend/lib/configutil/libsql"
	"raspbot-backend/lib/scrapers/kis"
	"raspbot-backend/services/snapshots/db"
)

type SubscriptionConfig struct {
	Subscriber string `json:"subscriber"`
	Entity     string `json:"entity"`
	// "Group" or "Teacher"
	Kind string `json:"kind"`
}

type Config struct {
	ScheduleUrl string              `json:"schedule_url"`
	ListUrl     string              `json:"list_url"`
	Database    configlibsql.Struct `json:"database"`
	// minutes between poller sweeps, 0 means the default
	IntervalMinutes int                  `json:"interval_minutes"`
	Subscriptions   []SubscriptionConfig `json:"subscriptions"`
}

func readConfig() (Config, error) {
	config, err := configutil.ReadConfig[Config]("config.json5")
	// a missing config is fine, every field has a usable default
	if err != nil && !os.IsNotExist(err) {
		return Config{}, err
	}
	if config.ScheduleUrl == "" {
		config.ScheduleUrl = "https://kis.vgltu.ru/schedule"
	}
	if config.ListUrl == "" {
		config.ListUrl = "https://kis.vgltu.ru/list"
	}
	if config.Database.File == "" {
		config.Database.File = "raspwatch.db"
	}
	return config, nil
}

func newClient(config Config) (*kis.Client, error) {
	return kis.NewClient(kis.ClientOptions{
		ScheduleURL: config.ScheduleUrl,
		ListURL:     config.ListUrl,
	})
}

func openDatabase(config Config) (*sql.DB, error) {
	return config.Database.OpenDB(db.Schema)
}
