package main

import (
	"fmt"
	"log"

	"github.com/fairhaven/upkeep/internal/assist"
	"github.com/fairhaven/upkeep/internal/config"
	"github.com/fairhaven/upkeep/internal/db"
	"github.com/fairhaven/upkeep/internal/maintenance"
	"github.com/fairhaven/upkeep/internal/metrics"
	"github.com/fairhaven/upkeep/internal/notify"
	"github.com/fairhaven/upkeep/internal/sysuser"
	"gorm.io/gorm"
)

// services bundles the wired application services shared by the serve,
// monitor, and sweep commands.
type services struct {
	DB      *gorm.DB
	Store   *maintenance.Service
	Assist  assist.Assist
	Notify  *notify.Service
	Metrics *metrics.Recorder
}

func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s: %w", cfg.Database.Database, err)
	}
	return cfg, gormDB, nil
}

func buildServices(cfg *config.Config, gormDB *gorm.DB) *services {
	rec := metrics.NewRecorder()
	as := assist.NewService(gormDB, cfg.AI)
	system := sysuser.NewResolver(gormDB)
	ns := notify.NewService(gormDB, buildChannels(cfg.Notify)...)
	store := maintenance.NewService(gormDB, as, system, rec)

	return &services{
		DB:      gormDB,
		Store:   store,
		Assist:  as,
		Notify:  ns,
		Metrics: rec,
	}
}

// buildChannels wires the chat channels that are fully configured.
// A partially configured channel is skipped with a warning rather than
// failing startup.
func buildChannels(cfg config.NotifyConfig) []notify.Channel {
	var channels []notify.Channel

	if cfg.SlackToken != "" || cfg.SlackChannel != "" {
		ch, err := notify.NewSlackChannel(notify.SlackOpts{
			BotToken:  cfg.SlackToken,
			ChannelID: cfg.SlackChannel,
		})
		if err != nil {
			log.Printf("upkeep: slack channel disabled: %v", err)
		} else {
			channels = append(channels, ch)
		}
	}

	if cfg.DiscordToken != "" || cfg.DiscordChannel != "" {
		ch, err := notify.NewDiscordChannel(notify.DiscordOpts{
			BotToken:  cfg.DiscordToken,
			ChannelID: cfg.DiscordChannel,
		})
		if err != nil {
			log.Printf("upkeep: discord channel disabled: %v", err)
		} else {
			channels = append(channels, ch)
		}
	}

	return channels
}
