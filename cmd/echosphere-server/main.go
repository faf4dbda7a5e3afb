package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"echosphere/internal/audit"
	"echosphere/internal/config"
	"echosphere/internal/logging"
	"echosphere/internal/server"
)

func main() {
	log := logging.New()

	cfg, err := config.ParseServerConfig(os.Args[1:])
	if err != nil {
		log.WithError(err).Fatal("failed to parse configuration")
	}

	var auditSink server.AuditSink
	if cfg.AuditDSN != "" {
		sink, err := audit.Open(cfg.AuditDSN, log)
		if err != nil {
			log.WithError(err).Fatal("failed to open audit sink")
		}
		defer sink.Close()
		auditSink = sink
	} else {
		auditSink = audit.Noop{}
	}

	netw := server.NewNetworking(log, auditSink)
	app := server.NewApplication(log, map[string]server.CommandHandler{
		"list": server.ListCommand{},
		"ping": server.NewPingCommand(),
	})
	app.Wire(netw)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Println("\nshutting down server...")
		cancel()
	}()

	log.WithFields(map[string]interface{}{"host": cfg.Host, "port": cfg.Port}).Info("starting echosphere server")
	if err := netw.Serve(ctx, cfg.Host, cfg.Port, cfg.Password); err != nil {
		log.WithError(err).Fatal("server stopped with an error")
	}
	fmt.Println("goodbye.")
}
