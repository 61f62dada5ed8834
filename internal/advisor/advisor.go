// Package advisor answers ad-hoc analyst questions about a finished
// pipeline run. The model only explains and summarizes the aggregates
// it is handed; it never classifies transactions or alters scores.
package advisor

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/suyash1912/Kavach/internal/insights"
)

const (
	maxContextCategories = 10
	maxContextFraudCases = 50
)

const systemPrompt = "You are a senior financial risk analyst helping me review a set of " +
	"transaction analytics. You must NOT perform your own fraud " +
	"classification or override existing risk scores. Instead, you " +
	"only explain and summarize the insights that I provide.\n\n" +
	"Speak in clear, professional language suitable for an internal " +
	"analytics report. Be concise but insightful. When you mention " +
	"users or transactions, always tie your explanation back to the " +
	"numbers and risk indicators I pass to you."

// AskFinancialAnalyst sends a free-form question plus a structured
// context block built from the run's aggregates, and returns the
// model's plain-text answer.
func AskFinancialAnalyst(ctx context.Context, modelName, question string, summary insights.Insights, fraudCases []insights.FraudCase) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return "", fmt.Errorf("askFinancialAnalyst: create genai client: %w", err)
	}

	fullPrompt := systemPrompt + "\n\n" + formatContext(summary, fraudCases) + "\n\nQuestion: " + question

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: fullPrompt},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, modelName, contents, nil)
	if err != nil {
		return "", fmt.Errorf("askFinancialAnalyst: generate content: %w", err)
	}

	answer := resp.Text()
	if answer == "" {
		return "", fmt.Errorf("askFinancialAnalyst: empty response from model")
	}
	return answer, nil
}

// formatContext turns the numeric aggregates into a compact text block
// the model can reason about.
func formatContext(summary insights.Insights, fraudCases []insights.FraudCase) string {
	var b strings.Builder

	b.WriteString("=== Aggregated Insights ===\n")
	fmt.Fprintf(&b, "Total spend observed: %.2f\n", summary.TotalSpend)

	b.WriteString("\nTop spending categories:\n")
	for i, cat := range summary.TopCategories {
		if i == maxContextCategories {
			break
		}
		fmt.Fprintf(&b, "- %s: %.2f\n", cat.Category, cat.TotalSpend)
	}

	b.WriteString("\nMonthly spending trend:\n")
	for _, month := range summary.MonthlyTrends {
		fmt.Fprintf(&b, "- %s: %.2f\n", month.Month, month.TotalSpend)
	}

	b.WriteString("\nUser-level summaries:\n")
	for _, user := range summary.UserSummaries {
		fmt.Fprintf(&b, "- user %s: total_spend=%.2f, avg_transaction=%.2f, tx_count=%d\n",
			user.UserID, user.TotalSpend, user.AvgTransaction, user.TxCount)
	}

	b.WriteString("\n=== Flagged / Risky Transactions ===\n")
	if len(fraudCases) == 0 {
		b.WriteString("No transactions are currently flagged as risky.\n")
		return b.String()
	}
	for i, tx := range fraudCases {
		if i == maxContextFraudCases {
			break
		}
		fmt.Fprintf(&b, "- user=%s, amount=%.2f, category=%s, country=%s, timestamp=%s, fraud_score=%.3f, rule_based_flag=%t, model_flag=%t\n",
			tx.UserID, tx.Amount, tx.Category, tx.Country, tx.Timestamp,
			tx.FraudScore, tx.RuleBasedFraudFlag, tx.ModelFraudFlag)
	}
	return b.String()
}
