package main

import (
	"log"
	"log/slog"
	"os"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := newRootCmd(openApp).Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}
