// Command hpswitch queries and configures HP switches over SNMP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	cmd, release := NewCommand()
	err := cmd.ExecuteContext(ctx)
	if closeErr := release(); err == nil && closeErr != nil {
		fmt.Fprintf(os.Stderr, "closing switch session: %v\n", closeErr)
		err = closeErr
	}
	cancel()
	if err != nil {
		os.Exit(exitCode(err))
	}
}
