package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"inventory-tracker/internal/client"
	"inventory-tracker/internal/logging"
	"inventory-tracker/internal/shell"
	"inventory-tracker/internal/tracker"
)

// Default server base URL; can override with ITS_SERVER env var or -server flag.
var serverBaseURL = "http://localhost:8080"

func main() {
	serverFlag := flag.String("server", "", "Override server base URL (e.g. http://inventory.local:8080)")
	timeout := flag.Duration("timeout", 15*time.Second, "Timeout for each API call")
	verbose := flag.Bool("v", false, "Log every API call to stderr")
	flag.Parse()
	if env := os.Getenv("ITS_SERVER"); env != "" {
		serverBaseURL = strings.TrimRight(env, "/")
	}
	if *serverFlag != "" {
		serverBaseURL = strings.TrimRight(*serverFlag, "/")
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger := logging.NewWithWriter(os.Stderr, level, "console")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := client.New(serverBaseURL,
		client.WithHTTPClient(&http.Client{Timeout: *timeout}),
		client.WithLogger(logger),
	)
	fmt.Printf("Inventory at %s. Type help for commands.\n", serverBaseURL)

	sh := shell.New(tracker.New(api), os.Stdin, os.Stdout)
	if err := sh.Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
