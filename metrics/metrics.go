package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// runsTotal 은 종료 상태별 실행 수다.
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autopost_runs_total",
			Help: "Total number of post generation runs by terminal status",
		},
		[]string{"status", "trigger"},
	)

	// externalAttempts 는 외부 클라이언트 호출 시도 수다.
	externalAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autopost_external_attempts_total",
			Help: "Total number of attempts against external clients (generation, posting)",
		},
		[]string{"call", "outcome"},
	)

	// settingsDefaults 는 기본값으로 대체된 설정 카테고리 수다.
	settingsDefaults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autopost_settings_defaults_total",
			Help: "Total number of settings categories substituted with defaults",
		},
		[]string{"category", "reason"},
	)

	// trendSourceFailures 는 흡수된 트렌드 소스 조회 실패 수다.
	trendSourceFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autopost_trend_source_failures_total",
			Help: "Total number of failed trend provider fetches",
		},
		[]string{"source"},
	)
)

func init() {
	prometheus.MustRegister(runsTotal)
	prometheus.MustRegister(externalAttempts)
	prometheus.MustRegister(settingsDefaults)
	prometheus.MustRegister(trendSourceFailures)
}

// RecordRun 은 종료 상태에 도달한 실행을 기록한다.
func RecordRun(status, trigger string) {
	runsTotal.WithLabelValues(status, trigger).Inc()
}

// RecordAttempt 는 외부 호출 시도 하나를 기록한다. outcome 은 "success" 또는 "failure" 다.
func RecordAttempt(call string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	externalAttempts.WithLabelValues(call, outcome).Inc()
}

// RecordSettingsDefault 는 기본값으로 대체된 카테고리를 기록한다.
func RecordSettingsDefault(category, reason string) {
	settingsDefaults.WithLabelValues(category, reason).Inc()
}

// RecordTrendSourceFailure 는 흡수된 트렌드 소스 실패를 기록한다.
func RecordTrendSourceFailure(source string) {
	trendSourceFailures.WithLabelValues(source).Inc()
}
