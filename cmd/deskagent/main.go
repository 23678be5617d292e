package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/unclebandit/deskagent/cmd/deskagent/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	commands.ExecuteContext(ctx)
}
