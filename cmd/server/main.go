package main

import (
	"log/slog"
	"os"

	"github.com/dangun/myaccount/internal/server"
)

func main() {
	s, err := server.New()
	if err != nil {
		slog.Error("Failed to initialize server", "error", err)
		os.Exit(1)
	}

	if err := s.Start(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}
