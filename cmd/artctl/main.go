package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"artd/internal/ctl"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := ctl.NewRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "artctl:", err)
		stop()
		os.Exit(1)
	}
}
