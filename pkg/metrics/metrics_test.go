package metrics

import (
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then metrics are named under fieldscout_api", func() {
				manager.statsComputed.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				found := false
				for _, f := range families {
					if f.GetName() == "fieldscout_api_stats_computed_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("scout"),
				WithSubsystem("test"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then names and constant labels follow the options", func() {
				manager.authAttempts.WithLabelValues("success").Inc()
				expected := `
# HELP scout_test_auth_attempts_total Login attempts by outcome
# TYPE scout_test_auth_attempts_total counter
scout_test_auth_attempts_total{env="test",outcome="success"} 1
`
				So(testutil.GatherAndCompare(registry, strings.NewReader(expected), "scout_test_auth_attempts_total"), ShouldBeNil)
			})
		})

		Convey("When empty options are given", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithConstLabels(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "fieldscout")
				So(manager.subsystem, ShouldEqual, "api")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		Convey("When reports are upserted", func() {
			created := testutil.ToFloat64(globalManager.reportUpserts.WithLabelValues(outcomeCreated))
			replaced := testutil.ToFloat64(globalManager.reportUpserts.WithLabelValues(outcomeReplaced))

			RecordReportUpsert(true)
			RecordReportUpsert(false)
			RecordReportUpsert(false)

			Convey("Then created and replaced are counted apart", func() {
				So(testutil.ToFloat64(globalManager.reportUpserts.WithLabelValues(outcomeCreated)), ShouldEqual, created+1)
				So(testutil.ToFloat64(globalManager.reportUpserts.WithLabelValues(outcomeReplaced)), ShouldEqual, replaced+2)
			})
		})

		Convey("When stats are computed", func() {
			before := testutil.ToFloat64(globalManager.statsComputed)
			RecordStatsComputed(12.5, 24)

			Convey("Then the counter moves", func() {
				So(testutil.ToFloat64(globalManager.statsComputed), ShouldEqual, before+1)
			})
		})

		Convey("When store record counts are updated", func() {
			UpdateStoreRecords("reports", 42)
			UpdateStoreRecords("reports", 40)

			Convey("Then the gauge holds the last value", func() {
				So(testutil.ToFloat64(globalManager.storeRecords.WithLabelValues("reports")), ShouldEqual, 40)
			})
		})

		Convey("When recording HTTP, repository and error metrics", func() {
			Convey("Then nothing panics", func() {
				So(func() {
					RecordHTTPRequest("/events", "GET", "200")
					RecordHTTPRequestDuration("/events", "GET", "200", 5.0)
					RecordRepositoryUpdateLatency(0.7)
					RecordRepositoryQueryLatency(1.2)
					RecordAuthAttempt("bad_password")
					RecordErrorByComponent("http", "not_found")
					RecordErrorByType("not_found", "warning")
					RecordErrorByEndpoint("/events/{event}", "GET", "not_found")
					RecordErrorLatency("http", "not_found", 3.0)
					UpdateSystemMemoryUsage(1 << 20)
					UpdateSystemGoroutineCount(12)
					RecordSystemGCPauseTime(0.3)
				}, ShouldNotPanic)
			})
		})

		Convey("When recorded concurrently", func() {
			before := testutil.ToFloat64(globalManager.authAttempts.WithLabelValues("concurrent"))
			var wg sync.WaitGroup
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 100; j++ {
						RecordAuthAttempt("concurrent")
					}
				}()
			}
			wg.Wait()

			Convey("Then no increments are lost", func() {
				So(testutil.ToFloat64(globalManager.authAttempts.WithLabelValues("concurrent")), ShouldEqual, before+1000)
			})
		})
	})

	Convey("GetRegistry exposes the custom registry", t, func() {
		So(GetRegistry(), ShouldEqual, customRegistry)
	})
}
