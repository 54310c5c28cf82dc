package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/paytrack/statement-analyzer/internal/ai"
	"github.com/paytrack/statement-analyzer/internal/analyzer"
	"github.com/paytrack/statement-analyzer/internal/config"
	"github.com/paytrack/statement-analyzer/internal/logger"
	"github.com/paytrack/statement-analyzer/internal/normalizer"
	"github.com/paytrack/statement-analyzer/internal/writer"
)

const version = "1.0.0"

func main() {
	// CLI flags
	currencyFlag := flag.String("currency", "", "Currency code for amounts (defaults to DEFAULT_CURRENCY or USD)")
	outputFlag := flag.String("output", "", "Output CSV file path (defaults to input filename with .analysis.csv extension)")
	noAIFlag := flag.Bool("no-ai", false, "Skip the AI analysis path and use keyword rules only")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	helpFlag := flag.Bool("help", false, "Show usage help")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `PayTrack Statement Analyzer

Parses bank statement exports (CSV or PDF) and identifies recurring
bills and subscriptions: loans, utilities, insurance, investments.

Usage:
  statement-analyzer [flags] <statement.csv|statement.pdf> [more files ...]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Analyze a CSV export
  statement-analyzer statement.csv

  # Analyze a PDF statement without calling the AI service
  statement-analyzer --no-ai statement.pdf

  # Custom output path and currency
  statement-analyzer --currency=INR --output=bills.csv statement.csv

Environment:
  GEMINI_API_KEY        API key for the AI analysis path (optional)
  GEMINI_MODEL          Model name (default gemini-2.5-flash)
  AI_TIMEOUT_SECONDS    Per-call timeout (default 120)
  DEFAULT_CURRENCY      Fallback currency code (default USD)
  LOG_LEVEL             debug, info, warn, error (default info)
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("statement-analyzer v%s\n", version)
		os.Exit(0)
	}

	if *helpFlag || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	currency := cfg.DefaultCurrency
	if *currencyFlag != "" {
		currency = strings.ToUpper(*currencyFlag)
	}

	var caller ai.Caller
	if !*noAIFlag && cfg.GeminiAPIKey != "" {
		caller = ai.NewGeminiCaller(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.AITimeout)
	}
	if caller == nil {
		log.Info().Msg("ai analysis disabled, using keyword rules")
	}

	ctx := logger.WithContext(context.Background(), log)
	norm := normalizer.New(caller, cfg.MaxPromptChars, log)
	anlz := analyzer.New(caller, log)

	for _, inputPath := range flag.Args() {
		if err := processFile(ctx, norm, anlz, inputPath, currency, *outputFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", inputPath, err)
			os.Exit(1)
		}
	}
}

func processFile(
	ctx context.Context,
	norm *normalizer.Normalizer,
	anlz *analyzer.Analyzer,
	inputPath, currency, outputPath string,
) error {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}

	content, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read input file: %w", err)
	}

	fmt.Printf("Processing: %s\n", inputPath)

	transactions, warnings, err := norm.Normalize(ctx, content, inputPath)
	if err != nil {
		if pe, ok := normalizer.AsParseError(err); ok {
			return fmt.Errorf("%s", pe.Message)
		}
		return err
	}

	for _, w := range warnings {
		fmt.Printf("  Warning: %s\n", w)
	}
	fmt.Printf("  Found %d debit transaction(s)\n", len(transactions))

	candidates, usedFallback, usage, err := anlz.Analyze(ctx, transactions, currency)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	fmt.Printf("  Identified %d recurring payment candidate(s)\n", len(candidates))
	if usedFallback {
		fmt.Println("  Note: AI analysis unavailable, results come from keyword rules.")
	}
	if usage != nil {
		fmt.Printf("  AI usage: %s, %d tokens in, %d tokens out, ~$%.6f\n",
			usage.Model, usage.InputTokens, usage.OutputTokens, usage.CostEstimate)
	}

	outPath := outputPath
	if outPath == "" {
		base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
		outPath = base + ".analysis.csv"
	}

	w := &writer.CandidateWriter{}
	if err := w.WriteToFile(outPath, candidates); err != nil {
		return fmt.Errorf("CSV write failed: %w", err)
	}

	fmt.Printf("  Output: %s\n", outPath)
	fmt.Println("  Done.")
	return nil
}
