// Package main provides the MCP server entry point for document question answering.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/bull/docqa/internal/app"
	"github.com/bull/docqa/internal/config"
	mcpserver "github.com/bull/docqa/internal/mcp"
)

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	application, err := app.New(ctx, cfg, nil)
	if err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}
	defer application.Close()

	// Ingestion completes before any question is served
	result, err := application.Ingest(ctx)
	if err != nil {
		log.Fatalf("failed to ingest %s: %v", cfg.DocumentPath, err)
	}
	log.Printf("Ingested %s: %d pages, %d chunks (reused: %t)", result.Document, result.Pages, result.Chunks, result.Reused)

	server := mcpserver.NewServer(&mcpserver.Config{
		Assistant: application.Session,
		Document:  result.Document,
	})

	mux := mcpserver.NewMux(server, mcpserver.HealthConfig{
		Store:     application.Store,
		StoreKind: cfg.VectorStore,
	}, nil)
	addr := "0.0.0.0:" + cfg.Port

	if cfg.ServerMode {
		// HTTP mode: serve MCP over HTTP for remote clients
		httpServer := &http.Server{Addr: addr, Handler: mux}
		go func() {
			<-ctx.Done()
			httpServer.Close()
		}()

		log.Printf("Starting HTTP server on %s (MCP at /mcp, health at /health)", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
		return
	}

	// Stdio mode: run MCP server over stdin/stdout for local clients
	// Also start HTTP health endpoint in background for local testing
	go func() {
		log.Printf("Starting health server on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("Health server error: %v", err)
		}
	}()

	log.Println("Starting docqa MCP Server (stdio mode)...")
	if err := server.Run(ctx); err != nil {
		log.Printf("server error: %v", err)
		os.Exit(1)
	}
}
