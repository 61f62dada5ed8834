package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := `# comment line
KAVACH_TEST_DATASET=risk
KAVACH_TEST_QUOTED="hello world"
KAVACH_TEST_SINGLE='single'

not_a_pair
KAVACH_TEST_EXISTING=from-file
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("KAVACH_TEST_EXISTING", "from-env")
	for _, key := range []string{"KAVACH_TEST_DATASET", "KAVACH_TEST_QUOTED", "KAVACH_TEST_SINGLE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}

	if got := os.Getenv("KAVACH_TEST_DATASET"); got != "risk" {
		t.Errorf("KAVACH_TEST_DATASET = %q, want %q", got, "risk")
	}
	if got := os.Getenv("KAVACH_TEST_QUOTED"); got != "hello world" {
		t.Errorf("KAVACH_TEST_QUOTED = %q, want %q", got, "hello world")
	}
	if got := os.Getenv("KAVACH_TEST_SINGLE"); got != "single" {
		t.Errorf("KAVACH_TEST_SINGLE = %q, want %q", got, "single")
	}
	if got := os.Getenv("KAVACH_TEST_EXISTING"); got != "from-env" {
		t.Errorf("env var overridden by .env: %q", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"GOOGLE_CLOUD_PROJECT", "KAVACH_DATASET", "KAVACH_BUCKET",
		"KAVACH_MODEL_BUNDLE", "KAVACH_GENAI_MODEL", "KAVACH_LABEL_COLUMN"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()
	if cfg.Dataset != "kavach" {
		t.Errorf("Dataset = %q, want %q", cfg.Dataset, "kavach")
	}
	if cfg.BundlePath != "model_bundle.json" {
		t.Errorf("BundlePath = %q, want default", cfg.BundlePath)
	}
	if cfg.GenAIModel != "gemini-2.5-flash" {
		t.Errorf("GenAIModel = %q, want default", cfg.GenAIModel)
	}
	if cfg.LabelColumn != "" {
		t.Errorf("LabelColumn = %q, want empty", cfg.LabelColumn)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("KAVACH_DATASET", "fraud_lab")
	t.Setenv("KAVACH_LABEL_COLUMN", "is_fraud")

	cfg := Load()
	if cfg.Dataset != "fraud_lab" {
		t.Errorf("Dataset = %q, want %q", cfg.Dataset, "fraud_lab")
	}
	if cfg.LabelColumn != "is_fraud" {
		t.Errorf("LabelColumn = %q, want %q", cfg.LabelColumn, "is_fraud")
	}
}
