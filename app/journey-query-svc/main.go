package main

import (
	"fmt"
	logger "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf"
	"github.com/spf13/cobra"

	"github.com/transitcore/pathfinder/app/journey-query-svc/query"
	"github.com/transitcore/pathfinder/foundation/database"
)

var build = "develop"

func main() {
	log := logger.New(os.Stdout, "JOURNEY-QUERY : ", logger.LstdFlags|logger.Lmicroseconds|logger.Lshortfile)
	root := &cobra.Command{
		Use:   "journey-query-svc",
		Short: "Serves multi-criteria journey-planning queries (C9) over a loaded transit dataset",
	}
	root.AddCommand(serveCmd(log))
	if err := root.Execute(); err != nil {
		log.Printf("main: error: %+v", err)
		os.Exit(1)
	}
}

func serveCmd(log *logger.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP journey-query and status endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(log)
		},
	}
}

func run(log *logger.Logger) error {
	var cfg struct {
		conf.Version
		DB struct {
			User       string `conf:"default:postgres"`
			Password   string `conf:"default:postgres,noprint"`
			Host       string `conf:"default:0.0.0.0"`
			Name       string `conf:"default:postgres"`
			DisableTLS bool   `conf:"default:true"`
		}
		Web struct {
			Address         string        `conf:"default:0.0.0.0:3000"`
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			ShutdownTimeout time.Duration `conf:"default:5s"`
		}
		DataSetId int64 `conf:"default:0"`
	}
	cfg.Version.SVN = build
	cfg.Version.Desc = "Resolves journey-planning requests (C9) against a loaded base model and real-time overlay"

	const prefix = "JOURNEY_QUERY"
	if err := conf.Parse(os.Args[2:], prefix, &cfg); err != nil {
		switch err {
		case conf.ErrHelpWanted:
			usage, err := conf.Usage(prefix, &cfg)
			if err != nil {
				return fmt.Errorf("generating config usage: %w", err)
			}
			fmt.Println(usage)
			return nil
		case conf.ErrVersionWanted:
			version, err := conf.VersionString(prefix, &cfg)
			if err != nil {
				return fmt.Errorf("generating config version: %w", err)
			}
			fmt.Println(version)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	log.Printf("main: started, version %q", build)
	defer log.Println("main: completed")

	db, err := database.Open(database.Config{
		User:       cfg.DB.User,
		Password:   cfg.DB.Password,
		Host:       cfg.DB.Host,
		Name:       cfg.DB.Name,
		DisableTLS: cfg.DB.DisableTLS,
	})
	if err != nil {
		return fmt.Errorf("connecting to db: %w", err)
	}
	defer db.Close()

	svc, err := query.NewService(log, db, cfg.DataSetId)
	if err != nil {
		return fmt.Errorf("loading base model: %w", err)
	}

	server := svc.HTTPServer(cfg.Web.Address, cfg.Web.ReadTimeout, cfg.Web.WriteTimeout)

	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("main: web server listening on %s", cfg.Web.Address)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Printf("main: shutdown started, signal %v", sig)
		defer log.Printf("main: shutdown complete, signal %v", sig)
		return nil
	}
}
