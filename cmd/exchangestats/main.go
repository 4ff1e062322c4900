package main

import (
	"context"
	"exchangestats/cmd/exchangestats/commands"
	"exchangestats/lib/telemetry"
	"exchangestats/lib/util/serviceutil"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "err", err)
	}

	ctx := serviceutil.SignalContext()

	tel, err := telemetry.SetupFromEnv(ctx, "exchangestats")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	code := commands.ExecuteContext(ctx, tel)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	err = tel.Shutdown(shutdownCtx)
	cancel()
	if err != nil {
		slog.Warn("failed to shutdown telemetry", "err", err)
	}
	os.Exit(code)
}
