package main

import (
	"context"
	"fmt"
	logger "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf"
	"github.com/gofrs/uuid"
	"github.com/spf13/cobra"

	"github.com/transitcore/pathfinder/app/disruption-ingest-svc/ingest"
	"github.com/transitcore/pathfinder/business/data/model"
	"github.com/transitcore/pathfinder/business/data/occupancy"
	"github.com/transitcore/pathfinder/business/disruption"
	"github.com/transitcore/pathfinder/business/realtime"
	"github.com/transitcore/pathfinder/business/timetable"
	"github.com/transitcore/pathfinder/foundation/database"
)

var build = "develop"

func main() {
	instanceId, _ := uuid.NewV4()
	log := logger.New(os.Stdout, fmt.Sprintf("DISRUPTION-INGEST[%s] : ", instanceId.String()[:8]), logger.LstdFlags|logger.Lmicroseconds|logger.Lshortfile)
	root := &cobra.Command{
		Use:   "disruption-ingest-svc",
		Short: "Applies chaos and kirin disruption messages to the real-time overlay (C6/C7)",
	}
	root.AddCommand(runCmd(log))
	if err := root.Execute(); err != nil {
		log.Printf("main: error: %+v", err)
		os.Exit(1)
	}
}

func runCmd(log *logger.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to NATS and continuously apply disruption messages",
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
		NATS struct {
			URL string `conf:"default:localhost"`
		}
		DataSetId int64 `conf:"default:0"`
	}
	cfg.Version.SVN = build
	cfg.Version.Desc = "Consumes chaos/kirin disruption messages and compiles them into the real-time overlay"

	const prefix = "DISRUPTION_INGEST"
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

	ds, err := model.GetDataSetAt(db, time.Now())
	if err != nil {
		ds = &model.DataSet{Id: cfg.DataSetId}
	}
	firstDate := time.Now().AddDate(-1, 0, 0)
	lastDate := time.Now().AddDate(1, 0, 0)
	base, err := model.LoadBaseModel(context.Background(), db, ds.Id, firstDate, lastDate)
	if err != nil {
		return fmt.Errorf("loading base model: %w", err)
	}

	store := timetable.NewStore()
	for _, vj := range base.VehicleJourneys() {
		if err := store.Insert(vj, make([]occupancy.Level, len(vj.StopTimes)-1)); err != nil {
			log.Printf("main: skipping vehicle journey %q: %v", vj.Id, err)
		}
	}

	overlay := realtime.NewStore(base)
	idx := disruption.NewIndex(base, store)
	compiler := disruption.NewCompiler(overlay, idx, disruption.NewHolidayChecker())

	conn, err := ingest.Dial(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("connecting to nats: %w", err)
	}
	defer conn.Close()

	listener := ingest.NewListener(log, conn, compiler, nil)

	shutdown := make(chan struct{})
	listenerErrors := make(chan error, 1)
	go func() {
		listenerErrors <- listener.Run(shutdown)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-listenerErrors:
		return fmt.Errorf("listener error: %w", err)
	case sig := <-sigCh:
		log.Printf("main: shutdown started, signal %v", sig)
		close(shutdown)
		<-listenerErrors
		log.Printf("main: shutdown complete")
		return nil
	}
}
