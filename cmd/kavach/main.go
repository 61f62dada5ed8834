package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/suyash1912/Kavach/internal/advisor"
	"github.com/suyash1912/Kavach/internal/config"
	"github.com/suyash1912/Kavach/internal/export"
	"github.com/suyash1912/Kavach/internal/logger"
	"github.com/suyash1912/Kavach/internal/pipeline"
	"github.com/suyash1912/Kavach/internal/schema"
	"github.com/suyash1912/Kavach/internal/scoring"
	"github.com/suyash1912/Kavach/internal/storage"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "analyze":
		runAnalyze(log)
	case "ask":
		runAsk(log)
	case "upload":
		runUpload(log)
	case "inspect":
		runInspect(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("KAVACH CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  kavach <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  analyze   Run the risk pipeline over a transaction file")
	fmt.Println("  ask       Ask the financial analyst about a saved report")
	fmt.Println("  upload    Upload a transaction file to GCS")
	fmt.Println("  inspect   Inspect the scored rows of a past run")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'kavach <command> -h' for more information on a command.")
}

func runAnalyze(log zerolog.Logger) {
	cfg := config.Load()

	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	file := fs.String("file", "", "Transaction file (local path or gs:// URI)")
	bundlePath := fs.String("bundle", cfg.BundlePath, "Model bundle path (optional)")
	labelColumn := fs.String("label-column", cfg.LabelColumn, "Source column holding a pre-existing fraud label (optional)")
	out := fs.String("out", "", "Write the report JSON to this local path or gs:// URI")
	exportBQ := fs.Bool("export-bq", false, "Export the scored table to BigQuery")
	fs.Parse(os.Args[2:])

	if *file == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	bundle, err := scoring.LoadBundleFile(*bundlePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Loading model bundle failed")
	}
	if bundle == nil {
		log.Info().Msg("No model bundle found, scoring with rules only")
	}
	scorer := scoring.NewScorer(bundle)

	data, err := storage.Fetch(ctx, *file)
	if err != nil {
		log.Fatal().Err(err).Msg("Fetching input file failed")
	}
	filename := storage.ExtractFilename(*file)

	log.Info().Str("file", filename).Msg("Starting analysis")

	snap, err := pipeline.Run(ctx, scorer, schema.Options{LabelColumn: *labelColumn}, data, filename)
	if err != nil {
		log.Fatal().Err(err).Msg("Analysis failed")
	}

	report, err := snap.MarshalReport()
	if err != nil {
		log.Fatal().Err(err).Msg("Building report failed")
	}

	switch {
	case strings.HasPrefix(*out, "gs://"):
		if err := storage.UploadToURI(ctx, *out, report); err != nil {
			log.Fatal().Err(err).Str("uri", *out).Msg("Uploading report failed")
		}
		log.Info().Str("uri", *out).Msg("Report uploaded")
	case *out != "":
		if err := os.WriteFile(*out, report, 0o644); err != nil {
			log.Fatal().Err(err).Str("path", *out).Msg("Writing report failed")
		}
		log.Info().Str("path", *out).Msg("Report written")
	default:
		fmt.Println(string(report))
	}

	if *exportBQ {
		exportRun(ctx, log, cfg, snap)
	}

	log.Info().
		Str("run_id", snap.ID).
		Int("rows", len(snap.Transactions)).
		Int("fraud_cases", len(snap.FraudCases)).
		Msg("Analysis completed")
}

func exportRun(ctx context.Context, log zerolog.Logger, cfg config.Config, snap *pipeline.Snapshot) {
	if cfg.ProjectID == "" {
		log.Fatal().Msg("Error: GOOGLE_CLOUD_PROJECT is required for -export-bq")
	}

	if err := export.StartAnalysisRun(ctx, cfg.ProjectID, cfg.Dataset, snap.ID, snap.Filename); err != nil {
		log.Fatal().Err(err).Msg("Starting analysis run failed")
	}
	if err := export.InsertScoredTransactions(ctx, cfg.ProjectID, cfg.Dataset, snap.ID, snap.Transactions); err != nil {
		export.MarkAnalysisRunFailed(ctx, cfg.ProjectID, cfg.Dataset, snap.ID, err)
		log.Fatal().Err(err).Msg("Exporting scored transactions failed")
	}
	if err := export.MarkAnalysisRunSucceeded(ctx, cfg.ProjectID, cfg.Dataset, snap.ID, len(snap.Transactions)); err != nil {
		log.Fatal().Err(err).Msg("Finishing analysis run failed")
	}

	log.Info().Str("run_id", snap.ID).Msg("Scored table exported to BigQuery")
}

func runAsk(log zerolog.Logger) {
	cfg := config.Load()

	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	reportPath := fs.String("report", "", "Report JSON produced by 'kavach analyze -out'")
	question := fs.String("question", "", "Question for the financial analyst")
	model := fs.String("model", cfg.GenAIModel, "GenAI model name")
	fs.Parse(os.Args[2:])

	if *reportPath == "" || *question == "" {
		log.Fatal().Msg("Usage: kavach ask -report PATH -question TEXT")
	}

	data, err := os.ReadFile(*reportPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *reportPath).Msg("Reading report failed")
	}
	var report pipeline.Report
	if err := json.Unmarshal(data, &report); err != nil {
		log.Fatal().Err(err).Msg("Decoding report failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	summary := report.Insights()
	answer, err := advisor.AskFinancialAnalyst(ctx, *model, *question, summary, report.FraudTable)
	if err != nil {
		log.Fatal().Err(err).Msg("Analyst request failed")
	}

	fmt.Println(answer)
}

func runUpload(log zerolog.Logger) {
	cfg := config.Load()

	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	bucketName := fs.String("bucket", cfg.Bucket, "GCS bucket name")
	objectName := fs.String("object", "", "GCS object name (defaults to filename)")
	filePath := fs.String("file", "", "Path to local transaction file")
	fs.Parse(os.Args[2:])

	if *bucketName == "" || *filePath == "" {
		log.Fatal().Msg("Usage: kavach upload -bucket NAME -file PATH")
	}

	if *objectName == "" {
		*objectName = filepath.Base(*filePath)
	}

	ctx := context.Background()
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("bucket", *bucketName).
		Str("object", *objectName).
		Str("file", *filePath).
		Msg("Uploading file to GCS")

	if err := storage.UploadFile(ctx, *bucketName, *objectName, *filePath); err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s to gs://%s/%s\n", *filePath, *bucketName, *objectName)
}

func runInspect(log zerolog.Logger) {
	cfg := config.Load()

	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	runID := fs.String("run-id", "", "Analysis run ID to inspect")
	limit := fs.Int("limit", 20, "Maximum rows to print")
	fs.Parse(os.Args[2:])

	if *runID == "" {
		log.Fatal().Msg("Error: --run-id is required")
	}
	if cfg.ProjectID == "" {
		log.Fatal().Msg("Error: GOOGLE_CLOUD_PROJECT is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	rows, err := export.QueryScoredByRun(ctx, cfg.ProjectID, cfg.Dataset, *runID)
	if err != nil {
		log.Fatal().Err(err).Msg("Querying scored rows failed")
	}

	fmt.Printf("Run %s: %d scored rows\n", *runID, len(rows))
	for i, r := range rows {
		if i == *limit {
			fmt.Printf("... and %d more\n", len(rows)-*limit)
			break
		}
		fmt.Printf("  #%d user=%s date=%s amount=%.2f category=%s score=%.3f rule=%t model=%t\n",
			r.RowID, r.UserID, r.TxDate.String(), r.Amount, r.Category,
			r.FraudScore, r.RuleBasedFraudFlag, r.ModelFraudFlag)
	}
}
