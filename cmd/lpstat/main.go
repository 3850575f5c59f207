// Command lpstat loads keys into a linear-probing table and prints the
// table's probing statistics.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/llxisdsh/lp/internal/platform/config"
	"github.com/llxisdsh/lp/internal/tools/lpstat"
)

func main() {
	cfg, err := lpstat.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := lpstat.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		config.Exitf("Error: %v", err)
	}
}
