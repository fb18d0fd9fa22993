package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/transitmap/arrivals"
	"github.com/transitmap/arrivals/config"
	"github.com/transitmap/arrivals/internal/logging"
)

func main() {
	app := &cli.App{
		Name:  "arrivals",
		Usage: "GTFS and GTFS-realtime arrival boards",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "path to the configuration file",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			boardCommand(),
			inspectCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Send()
	}
}

func loadApp(c *cli.Context) (*config.AppConfig, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the arrivals API server",
		Action: func(c *cli.Context) error {
			cfg, err := loadApp(c)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			engines := make([]*arrivals.Engine, 0, len(cfg.Feeds))
			for _, feed := range cfg.Feeds {
				e, err := arrivals.NewEngine(feed, cfg.Engine)
				if err != nil {
					return fmt.Errorf("load feed %s: %w", feed.Name, err)
				}
				engines = append(engines, e)
				go e.Run(ctx)
			}

			srv, err := arrivals.NewServer(cfg.Server.Port, engines)
			if err != nil {
				return err
			}
			srv.Start()
			srv.WaitForShutdown()
			return nil
		},
	}
}

func boardCommand() *cli.Command {
	return &cli.Command{
		Name:      "board",
		Usage:     "Print upcoming arrivals for a stop",
		ArgsUsage: "<stop-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "feed", Usage: "feed name, defaults to the first configured feed"},
			&cli.BoolFlag{Name: "watch", Usage: "keep the board open with live countdowns"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("expected exactly one stop id", 1)
			}
			stopID := c.Args().First()
			cfg, err := loadApp(c)
			if err != nil {
				return err
			}
			feed, err := cfg.SelectFeed(c.String("feed"))
			if err != nil {
				return err
			}
			engine, err := arrivals.NewEngine(feed, cfg.Engine)
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			if err := engine.Refresh(ctx); err != nil {
				return err
			}

			list := engine.Arrivals(stopID)
			if len(list) == 0 {
				fmt.Println("no upcoming arrivals")
				return nil
			}
			if !c.Bool("watch") {
				now := time.Now()
				for _, a := range list {
					printArrival(a, arrivals.Countdown(a.Time, now))
				}
				return nil
			}
			return watchBoard(ctx, engine, stopID)
		},
	}
}

// watchBoard re-renders the board on the refresh cadence while a shared
// scheduler keeps every line's countdown ticking in between.
func watchBoard(ctx context.Context, engine *arrivals.Engine, stopID string) error {
	sched := arrivals.NewScheduler(time.Second)
	go sched.Run(ctx)
	go engine.Run(ctx)

	const view = "board"
	render := func() {
		sched.CancelAll(view)
		fmt.Print("\033[H\033[2J")
		list := engine.Arrivals(stopID)
		for i, a := range list {
			line := i + 1
			sched.Add(view, a.Time, func(_ time.Duration, label string) {
				fmt.Printf("\033[%d;0H", line)
				printArrival(a, label)
			})
		}
	}

	render()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			render()
		}
	}
}

func printArrival(a arrivals.Arrival, countdown string) {
	fmt.Printf("%-6s %-24s %9s  %s\n", a.Route, a.Destination, countdown, a.StatusLabel())
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Load the static schedules and report table statistics",
		Action: func(c *cli.Context) error {
			cfg, err := loadApp(c)
			if err != nil {
				return err
			}
			for _, feed := range cfg.Feeds {
				engine, err := arrivals.NewEngine(feed, cfg.Engine)
				if err != nil {
					log.Error().Err(err).Str("feed", feed.Name).Msg("failed to load feed")
					continue
				}
				fmt.Printf("feed %s: %d stops\n", feed.Name, engine.Index().StopCount())
				if stats := engine.Stats(); stats != nil {
					for table, n := range stats.Loaded {
						fmt.Printf("  %-16s %7d rows, %d skipped\n", table, n, stats.Skipped[table])
					}
					for table, err := range stats.TableErrors {
						fmt.Printf("  %-16s error: %v\n", table, err)
					}
				}
			}
			return nil
		},
	}
}
