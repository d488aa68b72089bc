package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"stationgate/internal/claim"
	"stationgate/internal/logger"

	"github.com/joho/godotenv"
)

// The agent runs on a station and performs one claim attempt against the
// API, waiting until staff grant or deny it.
func main() {
	_ = godotenv.Load()
	lg := logger.New()
	defer lg.Sync()

	apiURL := os.Getenv("STATIONGATE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}
	echoURL := os.Getenv("IP_ECHO_URL")
	if echoURL == "" {
		echoURL = "https://api.ipify.org"
	}
	deviceName := os.Getenv("DEVICE_NAME")
	if deviceName == "" {
		deviceName, _ = os.Hostname()
	}
	tokenPath := os.Getenv("DEVICE_TOKEN_FILE")
	if tokenPath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			lg.Fatalw("no config dir for device token", "error", err)
		}
		tokenPath = filepath.Join(dir, "stationgate", "device-token")
	}

	runner := claim.NewRunner(
		claim.NewHTTPResolver(echoURL),
		&claim.FileStorage{Path: tokenPath},
		claim.NewAPIBackend(apiURL, lg),
		deviceName,
		lg,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	outcome := runner.Run(ctx)
	if outcome.Authorized {
		lg.Infow("authorized", "pc", outcome.PCID, "session", outcome.SessionID)
		fmt.Println("authorized")
		return
	}
	lg.Warnw("not authorized", "reason", outcome.Reason, "retryable", outcome.Retryable)
	fmt.Fprintln(os.Stderr, outcome.Reason)
	os.Exit(1)
}
