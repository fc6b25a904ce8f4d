package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	sqlx "github.com/jmoiron/sqlx"
	trigger "github.com/supernemo-dbd/trigger_go/pkg"
)

var dbConn *sqlx.DB
var configuration trigger.Configuration

var (
	logger         Logger
	VerbosityLevel int
)

func init() {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	handlerStdOut := NewHandler(os.Stdout, opts)
	handlerStdErr := slog.NewJSONHandler(os.Stderr, opts)
	logger = Logger{
		InfoLog:  slog.New(handlerStdOut),
		ErrorLog: slog.New(handlerStdErr),
	}
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	initDB := flag.Bool("init-db", false, "Store the standard channel mapping for run_number in the database and exit")
	generate := flag.Int("generate", 0, "Write this many synthetic events to file_in and exit")
	flag.Parse()

	var err error
	configuration, err = LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	trigger.SetConfiguration(configuration)
	trigger.SetLogger(logger)

	VerbosityLevel = configuration.Verbosity
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Reading configuration file: %s", *configFilename)
		logger.Info(message, "main")
		printConfiguration(configuration, logger)
	}

	if *initDB {
		if err := storeStandardMapping(); err != nil {
			logger.Error(err.Error())
			os.Exit(1)
		}
		return
	}

	mapping, err := loadMapping()
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	if dbConn != nil {
		defer dbConn.Close()
	}

	if *generate > 0 {
		if err := generateEvents(mapping, *generate); err != nil {
			logger.Error(err.Error())
			os.Exit(1)
		}
		return
	}

	if err := run(mapping); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func connect() error {
	var err error
	dbConn, err = trigger.ConnectToDatabase(configuration.DBDriver, configuration.User,
		configuration.Passwd, configuration.Host, configuration.DBName)
	if err != nil {
		return fmt.Errorf("Error connection to database: %w", err)
	}
	return nil
}

func storeStandardMapping() error {
	if err := connect(); err != nil {
		return err
	}
	defer dbConn.Close()
	if err := trigger.CreateMappingSchema(dbConn); err != nil {
		return fmt.Errorf("error creating mapping tables: %w", err)
	}
	run := configuration.RunNumber
	if err := trigger.StoreMapping(dbConn, trigger.StandardMappingTable(), run, run); err != nil {
		return fmt.Errorf("error storing mapping for run %d: %w", run, err)
	}
	logger.Info(fmt.Sprintf("Standard mapping stored for run %d", run), "main")
	return nil
}

func loadMapping() (trigger.ElectronicMapping, error) {
	if configuration.NoDB {
		return trigger.StandardMapping{}, nil
	}
	if err := connect(); err != nil {
		return nil, err
	}
	mapping, err := trigger.LoadMapping(dbConn, configuration.RunNumber)
	if err != nil {
		return nil, fmt.Errorf("error loading mapping for run %d: %w", configuration.RunNumber, err)
	}
	return mapping, nil
}

func generateEvents(mapping trigger.ElectronicMapping, nEvents int) error {
	file, err := os.Create(configuration.FileIn)
	if err != nil {
		return &trigger.ErrOpenFile{Filename: configuration.FileIn, Err: err}
	}
	defer file.Close()
	out := bufio.NewWriter(file)

	generator := trigger.NewEventGenerator(mapping, configuration.ClockSeed)
	for i := 0; i < nEvents; i++ {
		event, err := generator.Generate(uint32(configuration.RunNumber), uint32(i))
		if err != nil {
			return fmt.Errorf("error generating event %d: %w", i, err)
		}
		if err := trigger.WriteEvent(out, trigger.EncodeEvent(event)); err != nil {
			return fmt.Errorf("error writing event %d: %w", i, err)
		}
	}
	if err := out.Flush(); err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("%d events written to %s", nEvents, configuration.FileIn), "main")
	return nil
}

func run(mapping trigger.ElectronicMapping) error {
	start := time.Now()
	memories, err := trigger.LoadTrackerMemories(configuration.TrackerConfig())
	if err != nil {
		return fmt.Errorf("error loading tracker memories: %w", err)
	}

	file, err := os.Open(configuration.FileIn)
	if err != nil {
		return &trigger.ErrOpenFile{Filename: configuration.FileIn, Err: err}
	}
	defer file.Close()

	evtCount, runNumber, err := countEvents(file)
	if err != nil {
		return err
	}
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Number of events: %d, run %d", evtCount, runNumber)
		logger.Info(message, "main")
	}

	var writer *trigger.Writer
	if configuration.WriteData {
		writer, err = trigger.NewWriter(configuration.FileOut)
		if err != nil {
			return err
		}
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error(err.Error())
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	jobs := make(chan trigger.Event, 100)
	results := make(chan trigger.EventResult, 100)
	if err := trigger.RunWorkers(ctx, configuration.NumWorkers, memories, mapping, configuration, jobs, results); err != nil {
		return err
	}
	go sendEventsToWorkers(ctx, NewFileReader(file), jobs)

	summary := processWorkerResults(results, writer)
	message := fmt.Sprintf("Events processed: %d, triggered: %d, failed: %d, total time: %d ms",
		summary.processed, summary.triggered, summary.failed, time.Since(start).Milliseconds())
	logger.Info(message, "main")
	return nil
}
