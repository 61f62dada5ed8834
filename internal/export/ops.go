// Package export persists scored tables and run bookkeeping to
// BigQuery for downstream reporting.
package export

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/suyash1912/Kavach/internal/logger"
	"github.com/suyash1912/Kavach/internal/scoring"
)

const (
	scoredTable = "scored_transactions"
	runsTable   = "analysis_runs"
)

// StartAnalysisRun inserts a new row into <dataset>.analysis_runs with
// status=RUNNING.
func StartAnalysisRun(ctx context.Context, projectID, dataset, runID, sourceFile string) error {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("StartAnalysisRun: bigquery client: %w", err)
	}
	defer client.Close()

	return StartAnalysisRunWithClient(ctx, client, dataset, runID, sourceFile)
}

// StartAnalysisRunWithClient inserts a new row into
// <dataset>.analysis_runs with status=RUNNING using the provided
// BigQuery client.
func StartAnalysisRunWithClient(ctx context.Context, client *bigquery.Client, dataset, runID, sourceFile string) error {
	q := client.Query(fmt.Sprintf(`
		INSERT %s.%s (
			run_id,
			source_file,
			started_ts,
			status
		)
		VALUES (
			@run_id,
			@source_file,
			@started_ts,
			@status
		)
	`, dataset, runsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "run_id", Value: runID},
		{Name: "source_file", Value: sourceFile},
		{Name: "started_ts", Value: time.Now()},
		{Name: "status", Value: "RUNNING"},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("StartAnalysisRun: running insert query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("StartAnalysisRun: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("StartAnalysisRun: job error: %w", err)
	}
	return nil
}

// MarkAnalysisRunFailed sets status=FAILED, finished_ts and
// error_message. Bookkeeping failures are logged, never propagated,
// so they cannot mask the pipeline error being recorded.
func MarkAnalysisRunFailed(ctx context.Context, projectID, dataset, runID string, runErr error) {
	log := logger.FromContext(ctx)

	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		log.Error().
			Err(err).
			Str("run_id", runID).
			Msg("MarkAnalysisRunFailed: bigquery client error")
		return
	}
	defer client.Close()

	MarkAnalysisRunFailedWithClient(ctx, client, dataset, runID, runErr)
}

// MarkAnalysisRunFailedWithClient sets status=FAILED, finished_ts and
// error_message using the provided BigQuery client.
func MarkAnalysisRunFailedWithClient(ctx context.Context, client *bigquery.Client, dataset, runID string, runErr error) {
	log := logger.FromContext(ctx)

	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
		const maxLen = 2000
		if len(errMsg) > maxLen {
			errMsg = errMsg[:maxLen]
		}
	}

	q := client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = @error_message
		WHERE run_id = @run_id
	`, dataset, runsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: "FAILED"},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "error_message", Value: errMsg},
		{Name: "run_id", Value: runID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		log.Error().
			Err(err).
			Str("run_id", runID).
			Msg("MarkAnalysisRunFailed: running update query")
		return
	}
	status, err := job.Wait(ctx)
	if err != nil {
		log.Error().
			Err(err).
			Str("run_id", runID).
			Msg("MarkAnalysisRunFailed: waiting for job")
		return
	}
	if err := status.Err(); err != nil {
		log.Error().
			Err(err).
			Str("run_id", runID).
			Msg("MarkAnalysisRunFailed: job completed with error")
	}
}

// MarkAnalysisRunSucceeded sets status=SUCCESS, finished_ts and the
// final row count, and clears error_message.
func MarkAnalysisRunSucceeded(ctx context.Context, projectID, dataset, runID string, rowCount int) error {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("MarkAnalysisRunSucceeded: bigquery client: %w", err)
	}
	defer client.Close()

	return MarkAnalysisRunSucceededWithClient(ctx, client, dataset, runID, rowCount)
}

// MarkAnalysisRunSucceededWithClient sets status=SUCCESS, finished_ts
// and the final row count using the provided BigQuery client.
func MarkAnalysisRunSucceededWithClient(ctx context.Context, client *bigquery.Client, dataset, runID string, rowCount int) error {
	q := client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    finished_ts = @finished_ts,
		    row_count = @row_count,
		    error_message = ""
		WHERE run_id = @run_id
	`, dataset, runsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: "SUCCESS"},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "row_count", Value: int64(rowCount)},
		{Name: "run_id", Value: runID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("MarkAnalysisRunSucceeded: running update query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("MarkAnalysisRunSucceeded: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("MarkAnalysisRunSucceeded: job error: %w", err)
	}
	return nil
}

// InsertScoredTransactions inserts a scored table into
// <dataset>.scored_transactions under the given run ID.
func InsertScoredTransactions(ctx context.Context, projectID, dataset, runID string, txs []scoring.Transaction) error {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("InsertScoredTransactions: bigquery client: %w", err)
	}
	defer client.Close()

	return InsertScoredTransactionsWithClient(ctx, client, dataset, runID, txs)
}

// InsertScoredTransactionsWithClient inserts a scored table into
// <dataset>.scored_transactions using the provided BigQuery client.
func InsertScoredTransactionsWithClient(ctx context.Context, client *bigquery.Client, dataset, runID string, txs []scoring.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	inserter := client.Dataset(dataset).Table(scoredTable).Inserter()
	if err := inserter.Put(ctx, buildScoredRows(runID, txs)); err != nil {
		return fmt.Errorf("InsertScoredTransactions: inserting rows: %w", err)
	}
	return nil
}

// QueryScoredByRun returns the scored rows of one run, highest risk
// first.
func QueryScoredByRun(ctx context.Context, projectID, dataset, runID string) ([]*ScoredRow, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("QueryScoredByRun: bigquery client: %w", err)
	}
	defer client.Close()

	return QueryScoredByRunWithClient(ctx, client, dataset, runID)
}

// QueryScoredByRunWithClient returns the scored rows of one run using
// the provided BigQuery client.
func QueryScoredByRunWithClient(ctx context.Context, client *bigquery.Client, dataset, runID string) ([]*ScoredRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			run_id,
			row_id,
			user_id,
			ts,
			tx_date,
			amount,
			category,
			merchant,
			country,
			fraud_score,
			rule_based_fraud_flag,
			model_fraud_flag,
			velocity_flag,
			zscore_amount
		FROM %s.%s
		WHERE run_id = @run_id
		ORDER BY fraud_score DESC, row_id
	`, dataset, scoredTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "run_id", Value: runID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryScoredByRun: query read: %w", err)
	}

	var rows []*ScoredRow
	for {
		var r ScoredRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryScoredByRun: iter next: %w", err)
		}
		rows = append(rows, &r)
	}
	return rows, nil
}
