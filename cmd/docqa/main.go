// Package main provides the docqa CLI for asking questions about a scanned document.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bull/docqa/internal/app"
	"github.com/bull/docqa/internal/config"
)

const envHelp = `
Environment variables:
  DOCUMENT_PATH        PDF path or github://owner/repo/path[@ref] (default: The_Gift_of_the_Magi.pdf)
  GOOGLE_API_KEY       Gemini API key (required for the gemini provider)
  OPENAI_API_KEY       OpenAI API key (required for the openai provider)
  GENERATION_PROVIDER  gemini or openai, used for OCR and answers (default: gemini)
  EMBEDDING_PROVIDER   gemini or openai (default: gemini)
  VECTOR_STORE         memory, badger or qdrant (default: memory)
  CHUNK_SIZE           characters per chunk (default: 500)
  CHUNK_OVERLAP        characters shared by neighbouring chunks (default: 50)
  TOP_K                chunks retrieved per question (default: 3)`

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "docqa",
	Short:         "Question answering over a scanned document",
	Long:          "CLI tool that extracts a scanned PDF with a vision model, indexes it and answers questions grounded in its text.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Extract and index the document",
	Long: `Extracts every page of the document, splits the text into chunks and
stores their embeddings. An already populated collection is reused.
` + envHelp,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question about the document",
	Long: `Ingests the document, then answers the question given as arguments.
Without arguments, questions are read from standard input, one per line.
` + envHelp,
	RunE: runAsk,
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize the document",
	Args:  cobra.NoArgs,
	RunE:  runSummarize,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and index status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(indexCmd, askCmd, summarizeCmd, statusCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads the configuration and builds the application.
func setup(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, slog.Default())
}

// ingest builds the application and ingests the configured document.
func ingest(ctx context.Context) (*app.App, error) {
	a, err := setup(ctx)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(os.Stderr, "Ingesting %s...\n", a.Config.DocumentPath)
	result, err := a.Ingest(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("Ingestion failed: %w", err)
	}

	if result.Reused && result.Pages == 0 {
		fmt.Fprintf(os.Stderr, "Reused existing collection with %d chunks in %s\n",
			result.Chunks, result.Duration.Round(time.Millisecond))
		return a, nil
	}

	reused := ""
	if result.Reused {
		reused = " (reused existing collection)"
	}
	fmt.Fprintf(os.Stderr, "Indexed %d pages, %d characters, %d chunks%s in %s\n",
		result.Pages, result.Characters, result.Chunks, reused, result.Duration.Round(time.Millisecond))
	return a, nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	a, err := ingest(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Println("Index ready!")
	fmt.Printf("  Collection: %s (%s store)\n", a.Config.CollectionName, a.Config.VectorStore)
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := ingest(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if len(args) > 0 {
		fmt.Println(a.Session.Answer(ctx, strings.Join(args, " ")))
		return nil
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	fmt.Fprint(os.Stderr, "> ")
	for scanner.Scan() {
		question := strings.TrimSpace(scanner.Text())
		if question != "" {
			fmt.Println(a.Session.Answer(ctx, question))
			fmt.Println()
		}
		fmt.Fprint(os.Stderr, "> ")
	}
	fmt.Fprintln(os.Stderr)
	return scanner.Err()
}

func runSummarize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := ingest(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := a.Session.Summary(ctx)
	if err != nil {
		return fmt.Errorf("Summary failed: %w", err)
	}
	fmt.Println(summary)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Store.Health(ctx); err != nil {
		return fmt.Errorf("Vector store health check failed: %w", err)
	}

	status, err := a.Session.Status(ctx)
	if err != nil {
		return err
	}

	fmt.Println("Configuration:")
	fmt.Printf("  Document: %s\n", a.Config.DocumentPath)
	fmt.Printf("  Generation: %s\n", a.Config.GenerationProvider)
	fmt.Printf("  Embeddings: %s\n", a.Config.EmbeddingProvider)
	fmt.Printf("  Chunking: %d characters, %d overlap\n", a.Config.ChunkSize, a.Config.ChunkOverlap)
	fmt.Println()
	fmt.Println("Index:")
	fmt.Printf("  Store: %s (healthy)\n", a.Config.VectorStore)
	fmt.Printf("  Collection: %s\n", status.Collection)
	fmt.Printf("  Stored chunks: %d\n", status.StoredChunks)
	return nil
}
