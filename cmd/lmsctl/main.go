// Package main runs the LMS operator CLI.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/louisbranch/lms/internal/cmd/lmsctl"
)

func main() {
	log.SetPrefix("[LMSCTL] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := lmsctl.Execute(ctx, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
