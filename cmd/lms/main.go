// Package main starts the LMS API process lifecycle.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	lmscmd "github.com/louisbranch/lms/internal/cmd/lms"
	"github.com/louisbranch/lms/internal/platform/config"
)

func main() {
	cfg, err := lmscmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("lms", "parse flags: %v", err)
	}
	log.SetPrefix("[LMS] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := lmscmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
