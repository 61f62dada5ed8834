package config

import "os"

// Config holds process-level settings for the analysis CLI and its
// optional cloud integrations. The pipeline itself only needs
// LabelColumn and BundlePath; everything else configures collaborators
// (GCS, BigQuery, GenAI).
type Config struct {
	// ProjectID is the Google Cloud project for BigQuery export.
	ProjectID string

	// Dataset is the BigQuery dataset receiving scored transactions.
	Dataset string

	// Bucket is the default GCS bucket for uploads and report output.
	Bucket string

	// BundlePath is the location of the trained model bundle. Either a
	// local path or a gs:// URI. An empty or missing bundle means
	// rule-based scoring only.
	BundlePath string

	// GenAIModel is the Gemini model used by the analyst assistant.
	GenAIModel string

	// LabelColumn names a pre-existing fraud/risk label column to fold
	// into the rule-based flag. Empty disables label folding.
	LabelColumn string
}

// Load reads configuration from the environment, after loading a local
// .env file if one exists. Environment variables always win over .env.
func Load() Config {
	_ = LoadDotEnv(".env")

	return Config{
		ProjectID:   getenv("GOOGLE_CLOUD_PROJECT", ""),
		Dataset:     getenv("KAVACH_DATASET", "kavach"),
		Bucket:      getenv("KAVACH_BUCKET", ""),
		BundlePath:  getenv("KAVACH_MODEL_BUNDLE", "model_bundle.json"),
		GenAIModel:  getenv("KAVACH_GENAI_MODEL", "gemini-2.5-flash"),
		LabelColumn: getenv("KAVACH_LABEL_COLUMN", ""),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
