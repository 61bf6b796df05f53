package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinic-desk/internal/clinicapi"
	"clinic-desk/internal/configs"
	"clinic-desk/internal/logging"
	"clinic-desk/internal/queueboard"
	"clinic-desk/internal/queueing"
	"clinic-desk/internal/scheduler"
)

var configPath = flag.String("config", "", "Config file path")

// loadConfigurations loads system configurations based on the given config file.
func loadConfigurations() configs.Config {
	if *configPath == "" {
		log.Fatal("no config file path was given")
	}
	config, err := configs.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	return config
}

// formatEntry renders one board position, using a dash for an empty chair.
func formatEntry(entry *queueing.QueueEntry) string {
	if entry == nil {
		return "-"
	}
	return fmt.Sprintf("%s %s %s (%s)", entry.QueueNumber, entry.FirstName, entry.LastName, entry.Complaint)
}

// printBoard renders the six board positions.
func printBoard(logger *log.Logger, snapshot *queueing.Snapshot) {
	if snapshot == nil {
		logging.PrintlnWarn(logger, "no queue snapshot applied yet")
		return
	}
	logging.PrintlnInfo(logger, "priority now: ", formatEntry(snapshot.PriorityCurrent))
	logging.PrintlnInfo(logger, "priority next: ", formatEntry(snapshot.PriorityNext1), " | ", formatEntry(snapshot.PriorityNext2))
	logging.PrintlnInfo(logger, "regular now: ", formatEntry(snapshot.RegularCurrent))
	logging.PrintlnInfo(logger, "regular next: ", formatEntry(snapshot.RegularNext1), " | ", formatEntry(snapshot.RegularNext2))
}

func main() {
	flag.Parse()
	config := loadConfigurations()

	logger := log.New(os.Stdout, "", log.LstdFlags)

	tokens := clinicapi.NewFileTokenSource(config.TokenFile())
	client := clinicapi.NewClient(config, tokens)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-exit
		cancel()
	}()

	session := scheduler.NewSession(client, logger)
	if err := session.LoadReferrals(ctx); err == nil {
		logging.PrintlnInfo(logger, fmt.Sprint(len(session.Referrals()), " referrals awaiting scheduling"))
	}

	board := queueboard.NewBoard(client, logger, config.PollInterval())
	go board.Run(ctx)

	ticker := time.NewTicker(config.PollInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logging.PrintlnInfo(logger, "desk board stopped")
			return
		case <-ticker.C:
			printBoard(logger, board.Snapshot())
		}
	}
}
