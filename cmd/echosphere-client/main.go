package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"echosphere/internal/client"
	"echosphere/internal/config"
	"echosphere/internal/logging"
	"echosphere/internal/ui"
)

func main() {
	log := logging.New()

	cfg, err := config.ParseClientConfig(os.Args[1:])
	if err != nil {
		log.WithError(err).Fatal("failed to parse configuration")
	}

	term := ui.New(os.Stdin, os.Stdout)
	net := client.NewNetworking(log)
	app := client.NewApplication(log, term, net)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	if err := app.Run(ctx, cfg.Host, cfg.Port, cfg.Username, cfg.Password); err != nil {
		fmt.Fprintf(os.Stderr, "echosphere-client: %v\n", err)
		os.Exit(1)
	}
}
