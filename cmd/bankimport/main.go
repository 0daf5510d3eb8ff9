package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rumor-ml/commons.systems/bankimport/internal/config"
	"github.com/rumor-ml/commons.systems/bankimport/internal/domain"
	"github.com/rumor-ml/commons.systems/bankimport/internal/firestore"
	"github.com/rumor-ml/commons.systems/bankimport/internal/output"
	"github.com/rumor-ml/commons.systems/bankimport/internal/pipeline"
	"github.com/rumor-ml/commons.systems/bankimport/internal/registry"
	"github.com/rumor-ml/commons.systems/bankimport/internal/rules"
	"github.com/rumor-ml/commons.systems/bankimport/internal/scanner"
	"github.com/rumor-ml/commons.systems/bankimport/internal/server"
	"github.com/rumor-ml/commons.systems/bankimport/internal/ui"
)

const version = "0.1.0"

var (
	// Global flags
	versionFlag = flag.Bool("version", false, "Show version")

	// Mode flags
	serveMode = flag.Bool("serve", false, "Run the HTTP import API instead of the CLI importer")

	// Core CLI flags
	inputDir = flag.String("input", "", "Input directory containing statements (required unless -serve)")
	account  = flag.String("account", "", "Account ID for all files (default: taken from directory layout)")
	user     = flag.String("user", "", "User ID to import under (required unless -serve or -dry-run)")
	dryRun   = flag.Bool("dry-run", false, "Parse and print statements without writing to the store")
	verbose  = flag.Bool("verbose", false, "Show detailed parsing logs")

	// Configuration flags
	configFile = flag.String("config", "", "YAML config file (default: embedded defaults)")
	rulesFile  = flag.String("rules", "", "Category rules YAML file (default: embedded rules)")
	project    = flag.String("project", "", "Firestore project ID (overrides config)")
	outputFile = flag.String("output", "", "Dry-run output JSON file (default: stdout)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `bankimport - bank statement importer for the ledger

Usage:
  bankimport [flags]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprint(os.Stderr, `
Examples:
  # Preview what a directory of statements parses into
  bankimport -input ~/extratos -dry-run

  # Import statements, account taken from the directory layout
  bankimport -input ~/extratos -user u123 -project my-project

  # Run the HTTP import API
  bankimport -serve -project my-project

`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("bankimport version %s\n", version)
		os.Exit(0)
	}

	if !*serveMode && *inputDir == "" {
		fmt.Fprintf(os.Stderr, "Error: -input flag is required\n\n")
		flag.Usage()
		os.Exit(1)
	}
	if !*serveMode && !*dryRun && *user == "" {
		fmt.Fprintf(os.Stderr, "Error: -user flag is required for imports\n\n")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if *configFile != "" {
		cfg, err = config.LoadFromFile(*configFile)
	} else {
		cfg, err = config.LoadEmbedded()
	}
	if err != nil {
		return nil, err
	}
	if *project != "" {
		cfg.ProjectID = *project
	}
	return cfg, nil
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if *serveMode {
		return serve(ctx, cfg)
	}
	if *dryRun {
		return preview(ctx)
	}
	return importDir(ctx, cfg)
}

// serve runs the HTTP import API until interrupted
func serve(ctx context.Context, cfg *config.Config) error {
	if cfg.ProjectID == "" {
		return fmt.Errorf("project ID is required: set -project or project_id in the config file")
	}

	srv, err := server.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer srv.Close()

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "Listening on %s\n", cfg.ListenAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return httpServer.Shutdown(context.Background())
	}
}

// preview parses every statement file and prints the merged result as JSON
func preview(ctx context.Context) error {
	files, err := scanFiles()
	if err != nil {
		return err
	}

	// ParseContent never touches the store, so a client-less pipeline
	// works for previews
	engine, err := loadRules()
	if err != nil {
		return err
	}
	pipe := pipeline.NewPipeline(nil, registry.New(), engine, config.Limits{ExistsChunkSize: 1, WriteBatchSize: 1})
	merged := domain.NewParsedBankStatement()

	for _, file := range files {
		statement, err := parseFile(ctx, pipe, file.Path)
		if err != nil {
			return err
		}
		if *verbose {
			fmt.Fprintf(os.Stderr, "  %s: %d transactions, %d balances\n",
				file.Path, len(statement.Transactions), len(statement.Balances))
		}
		merged.Transactions = append(merged.Transactions, statement.Transactions...)
		merged.Balances = append(merged.Balances, statement.Balances...)
	}

	return output.WriteStatementToFile(merged, output.WriteOptions{FilePath: *outputFile})
}

func parseFile(ctx context.Context, pipe *pipeline.Pipeline, path string) (*domain.ParsedBankStatement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	statement, err := pipe.ParseContent(ctx, path, data, *account)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return statement, nil
}

// importDir imports every statement file under the input directory
func importDir(ctx context.Context, cfg *config.Config) error {
	if cfg.ProjectID == "" {
		return fmt.Errorf("project ID is required: set -project or project_id in the config file")
	}

	files, err := scanFiles()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no statement files found in %s (supported extensions: .csv, .ofx, .qfx)", *inputDir)
	}

	fsClient, err := firestore.NewClient(ctx, cfg.ProjectID, cfg.Collections)
	if err != nil {
		return fmt.Errorf("failed to create Firestore client: %w", err)
	}
	defer fsClient.Close()

	engine, err := loadRules()
	if err != nil {
		return err
	}
	pipe := pipeline.NewPipeline(fsClient, registry.New(), engine, cfg.Limits)

	if !*verbose {
		ui.Step(2, 2, "Importing statements")
	}

	totals := pipeline.ImportResult{}
	failed := 0
	for _, file := range files {
		accountID, err := resolveAccount(*account, file.AccountID)
		if err != nil {
			return fmt.Errorf("%s: %w", file.Path, err)
		}

		result, err := pipe.ImportFile(ctx, *user, accountID, file.Path)
		if err != nil {
			ui.Error(fmt.Sprintf("%s: %v", file.Path, err))
			failed++
			continue
		}
		if *verbose {
			fmt.Fprintf(os.Stderr, "  %s: %d imported, %d skipped\n",
				file.Path, result.Imported, result.Skipped)
		}
		totals.Imported += result.Imported
		totals.Skipped += result.Skipped
		totals.BalancesImported += result.BalancesImported
		totals.BalancesSkipped += result.BalancesSkipped
	}

	ui.Success("Import complete")
	ui.Summary("Imported", totals.Imported)
	ui.Summary("Skipped", totals.Skipped)
	ui.Summary("Balances imported", totals.BalancesImported)
	ui.Summary("Balances skipped", totals.BalancesSkipped)
	if failed > 0 {
		return fmt.Errorf("%d file(s) failed to import", failed)
	}
	return nil
}

func scanFiles() ([]scanner.ScanResult, error) {
	if !*verbose {
		ui.Header("Importing Bank Statements")
		ui.Step(1, 2, "Scanning directory")
	} else {
		fmt.Fprintf(os.Stderr, "Scanning directory: %s\n", *inputDir)
	}

	files, err := scanner.New(*inputDir).Scan()
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory %s: %w", *inputDir, err)
	}

	if *verbose {
		fmt.Fprintf(os.Stderr, "Found %d statement files\n", len(files))
		for _, f := range files {
			fmt.Fprintf(os.Stderr, "  - %s (account: %s)\n", f.Path, f.AccountID)
		}
	} else {
		ui.Success(fmt.Sprintf("Found %d statement files", len(files)))
	}
	return files, nil
}

func loadRules() (*rules.Engine, error) {
	if *rulesFile != "" {
		return rules.LoadFromFile(*rulesFile)
	}
	return rules.LoadEmbedded()
}

// resolveAccount picks the explicit flag over the directory-derived account
func resolveAccount(flagAccount, scannedAccount string) (string, error) {
	if flagAccount != "" {
		return flagAccount, nil
	}
	if scannedAccount != "" {
		return scannedAccount, nil
	}
	return "", fmt.Errorf("no account ID: pass -account or place the file under an account directory")
}
