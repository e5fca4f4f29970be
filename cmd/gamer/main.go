package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirfoga/gamer/internal/app"
	"github.com/sirfoga/gamer/internal/cli"
)

func main() {
	app.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cli.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	if err == nil {
		return
	}

	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "gamer:", exitErr.Message)
		os.Exit(exitErr.Code)
	}
	log.Fatal(err)
}
