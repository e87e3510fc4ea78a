package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ethereum-optimism/infra/op-campaign/types"
)

const (
	MetricsNamespace = "campaign"
)

var (
	Debug                bool = true
	validOutcomes             = []types.Outcome{types.OutcomeOK, types.OutcomeTestcaseFailed, types.OutcomeRunError}
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	testResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "test_results_total",
		Help:      "Count of test-case results",
	}, []string{
		"ci_loop",
		"run_id",
		"case_name",
		"result",
	})

	campaignResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "results",
		Help:      "Overall result of campaign runs",
	}, []string{
		"ci_loop",
		"run_id",
		"result",
	})

	campaignTestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "test_total",
		Help:      "Total number of executed test cases",
	}, []string{
		"ci_loop",
		"run_id",
	})

	campaignTestPassed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "test_passed",
		Help:      "Number of passed test cases",
	}, []string{
		"ci_loop",
		"run_id",
	})

	campaignTestFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "test_failed",
		Help:      "Number of failed test cases",
	}, []string{
		"ci_loop",
		"run_id",
	})

	campaignDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "duration",
		Help:      "Duration of campaign runs",
	}, []string{
		"ci_loop",
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

func RecordTestResult(ciLoop string, runID string, caseName string, result types.Outcome) {
	if !isValidOutcome(result) {
		log.Error("RecordTestResult - invalid result", "result", result)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "test_results_total",
			"ci_loop", ciLoop,
			"run_id", runID,
			"case_name", caseName,
			"result", result)
	}
	testResultsTotal.WithLabelValues(ciLoop, runID, caseName, string(result)).Inc()
}

func RecordCampaign(
	ciLoop string,
	runID string,
	result string,
	total int,
	passed int,
	failed int,
	duration time.Duration,
) {
	campaignResults.WithLabelValues(ciLoop, runID, result).Set(1)
	campaignTestTotal.WithLabelValues(ciLoop, runID).Add(float64(total))
	campaignTestPassed.WithLabelValues(ciLoop, runID).Add(float64(passed))
	campaignTestFailed.WithLabelValues(ciLoop, runID).Add(float64(failed))
	campaignDuration.WithLabelValues(ciLoop, runID).Set(duration.Seconds())
}

func isValidOutcome(result types.Outcome) bool {
	return slices.Contains(validOutcomes, result)
}
