package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/suyash1912/Kavach/internal/features"
)

// ErrBundleMismatch reports a model bundle whose classifier shape does
// not agree with its own declared transform. A stale bundle with merely
// missing columns degrades instead; this error means the artifact is
// internally inconsistent.
var ErrBundleMismatch = errors.New("model bundle shape mismatch")

// NumericScaler holds the fitted standardization for one numeric
// feature. A zero Std means the feature was constant at fit time and
// passes through unscaled.
type NumericScaler struct {
	Name string  `json:"name"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// CategoricalEncoding holds the fitted one-hot vocabulary for one
// categorical feature. Values unseen at fit time encode to all zeros.
type CategoricalEncoding struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Transform is the fitted feature transform of a bundle.
type Transform struct {
	Numeric     []NumericScaler       `json:"numeric"`
	Categorical []CategoricalEncoding `json:"categorical"`
}

// Classifier is a fitted logistic regression over the transformed
// feature vector.
type Classifier struct {
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// Bundle is the opaque artifact produced by offline training. It is
// loaded once at startup and treated as read-only afterwards; one
// instance may be shared across concurrent pipeline runs.
type Bundle struct {
	Transform              Transform  `json:"transform"`
	EngineeredFeatureNames []string   `json:"engineered_feature_names"`
	Classifier             Classifier `json:"classifier"`
}

// featureWidth is the classifier input width the transform implies.
func (b *Bundle) featureWidth() int {
	width := len(b.Transform.Numeric)
	for _, c := range b.Transform.Categorical {
		width += len(c.Values)
	}
	return width + len(b.EngineeredFeatureNames)
}

// LoadBundle decodes and validates a serialized bundle.
func LoadBundle(data []byte) (*Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("load bundle: %w", err)
	}
	if got, want := len(b.Classifier.Weights), b.featureWidth(); got != want {
		return nil, fmt.Errorf("load bundle: classifier expects %d features, transform produces %d: %w",
			got, want, ErrBundleMismatch)
	}
	return &b, nil
}

// LoadBundleFile loads a bundle from disk. A missing file is not an
// error, only a signal to run without a model.
func LoadBundleFile(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load bundle file %q: %w", path, err)
	}
	return LoadBundle(data)
}

// featureVector builds the classifier input for one transaction:
// standard-scaled numerics, one-hot categoricals, then the engineered
// subset in the bundle's declared order. Anything the bundle names
// that the transaction cannot supply contributes 0.0.
func (b *Bundle) featureVector(tx *features.Transaction) []float64 {
	vec := make([]float64, 0, b.featureWidth())

	for _, s := range b.Transform.Numeric {
		raw := numericFeature(tx, s.Name)
		std := s.Std
		if std == 0 {
			std = 1
		}
		vec = append(vec, (raw-s.Mean)/std)
	}

	for _, c := range b.Transform.Categorical {
		value := categoricalFeature(tx, c.Name)
		for _, v := range c.Values {
			if v == value {
				vec = append(vec, 1)
			} else {
				vec = append(vec, 0)
			}
		}
	}

	for _, name := range b.EngineeredFeatureNames {
		vec = append(vec, engineeredFeature(tx, name))
	}

	return vec
}

// numericFeature resolves a bundle numeric column against the
// transaction's amount and calendar fields. Weekday numbering follows
// the Monday=0 convention the bundle was fitted under.
func numericFeature(tx *features.Transaction, name string) float64 {
	switch name {
	case "amount":
		return tx.Amount
	case "tx_year":
		return float64(tx.Timestamp.Year())
	case "tx_month":
		return float64(tx.Timestamp.Month())
	case "tx_day":
		return float64(tx.Timestamp.Day())
	case "tx_hour":
		return float64(tx.Timestamp.Hour())
	case "tx_dayofweek":
		return float64((int(tx.Timestamp.Weekday()) + 6) % 7)
	default:
		return 0.0
	}
}

func categoricalFeature(tx *features.Transaction, name string) string {
	switch name {
	case "user_id":
		return tx.UserID
	case "category":
		return tx.Category
	case "merchant":
		return tx.Merchant
	case "country":
		return tx.Country
	default:
		return ""
	}
}

func engineeredFeature(tx *features.Transaction, name string) float64 {
	switch name {
	case "user_cumulative_spend":
		return tx.UserCumulativeSpend
	case "user_category_spend":
		return tx.UserCategorySpend
	case "user_tx_velocity_per_day":
		return tx.UserTxVelocityPerDay
	case "rolling_mean_amount":
		if !tx.RollingValid {
			return 0.0
		}
		return tx.RollingMeanAmount
	case "rolling_std_amount":
		if !tx.RollingValid {
			return 0.0
		}
		return tx.RollingStdAmount
	case "zscore_amount":
		return tx.ZScoreAmount
	case "country_changed":
		if tx.CountryChanged {
			return 1.0
		}
		return 0.0
	default:
		return 0.0
	}
}
