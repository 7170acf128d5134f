package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/circleapp/go-circle/server"
	"github.com/circleapp/go-circle/service/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	router := server.Init()

	if err := server.Run(ctx, router); err != nil {
		logger.For(ctx).Fatalf("server exited: %s", err)
	}
}
