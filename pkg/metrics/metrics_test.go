package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			subsystemOpt := WithSubsystem("test-subsystem")
			metricPrefixOpt := WithMetricPrefix("test-prefix")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})
			metricsEnabledOpt := WithMetricsEnabled(true)
			refreshIntervalOpt := WithRefreshInterval(5 * time.Second)
			customLabelsOpt := WithCustomLabels(map[string]string{"env": "test"})

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(metricPrefixOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
				So(metricsEnabledOpt, ShouldNotBeNil)
				So(refreshIntervalOpt, ShouldNotBeNil)
				So(customLabelsOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithMetricPrefix("test-prefix"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(10*time.Second),
				WithCustomLabels(map[string]string{"env": "test", "version": "1.0"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with empty or nil option values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithMetricPrefix(""),
				WithHistogramBuckets(nil),
				WithCustomLabels(nil),
				WithRefreshInterval(0),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults should be kept and creation should succeed", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "veridoc")
				So(manager.subsystem, ShouldEqual, "verification")
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given metrics recording", t, func() {
		Convey("When recording verification metrics", func() {
			Convey("Then it should record processed requests", func() {
				So(func() {
					RecordVerificationProcessed()
					RecordVerificationProcessed()
					RecordVerificationProcessed()
				}, ShouldNotPanic)
			})

			Convey("And it should record duplicates and failures", func() {
				So(func() {
					RecordVerificationDuplicate()
					RecordVerificationFailed()
				}, ShouldNotPanic)
			})

			Convey("And it should record outcomes", func() {
				So(func() {
					RecordVerificationOutcome(true, true)
					RecordVerificationOutcome(true, false)
					RecordVerificationOutcome(false, false)
				}, ShouldNotPanic)
			})

			Convey("And it should record pipeline latency", func() {
				So(func() {
					RecordPipelineLatency(100.0)
					RecordPipelineLatency(150.0)
					RecordPipelineLatency(200.0)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording MRZ metrics", func() {
			Convey("Then it should record parse outcomes", func() {
				So(func() {
					RecordMRZParsed("td3", true)
					RecordMRZParsed("td1", false)
					RecordMRZParsed("", false)
				}, ShouldNotPanic)
			})

			Convey("And it should record checksum failures", func() {
				So(func() {
					RecordMRZChecksumFailures(1)
					RecordMRZChecksumFailures(3)
					RecordMRZChecksumFailures(0)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording OCR metrics", func() {
			Convey("Then it should record latency and errors", func() {
				So(func() {
					RecordOCRLatency(1200.0)
					RecordOCRLatency(3500.0)
					RecordOCRError()
				}, ShouldNotPanic)
			})
		})

		Convey("When recording HTTP metrics", func() {
			Convey("Then it should record HTTP requests", func() {
				So(func() {
					RecordHTTPRequest("/healthz", "GET", "200")
					RecordHTTPRequest("/verifications", "POST", "202")
					RecordHTTPRequest("/verify", "POST", "200")
				}, ShouldNotPanic)
			})

			Convey("And it should record HTTP request duration", func() {
				So(func() {
					RecordHTTPRequestDuration("/healthz", "GET", "200", 5.0)
					RecordHTTPRequestDuration("/verifications", "POST", "202", 10.0)
					RecordHTTPRequestDuration("/verify", "POST", "200", 15.0)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording error metrics", func() {
			Convey("Then it should record errors by component", func() {
				So(func() {
					RecordErrorByComponent("worker", "timeout")
					RecordErrorByComponent("ocr", "exec_failed")
					RecordErrorByComponent("queue", "full")
				}, ShouldNotPanic)
			})

			Convey("And it should record errors by endpoint", func() {
				So(func() {
					RecordErrorByEndpoint("/verifications", "POST", "queue_full")
					RecordErrorByEndpoint("/verifications/{id}", "GET", "not_found")
					RecordErrorByEndpoint("/verify", "POST", "bad_request")
				}, ShouldNotPanic)
			})

			Convey("And it should record errors by type and error latency", func() {
				So(func() {
					RecordErrorByType("not_found", "medium")
					RecordErrorByType("server_error", "high")
					RecordErrorLatency("http", "rate_limit", 12.0)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording repository metrics", func() {
			Convey("Then it should update stored job counts", func() {
				So(func() {
					UpdateRepositoryJobsTotal(100)
					UpdateRepositoryJobsTotal(200)
					UpdateRepositoryJobsTotal(50)
				}, ShouldNotPanic)
			})

			Convey("And it should record evictions and query latency", func() {
				So(func() {
					RecordRepositoryEviction()
					RecordRepositoryQueryLatency(2.0)
					RecordRepositoryQueryLatency(5.0)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording queue metrics", func() {
			Convey("Then it should update queue gauges", func() {
				So(func() {
					UpdateQueueCapacity(10000)
					UpdateQueueSize(1000)
					UpdateQueueUtilization(0.1)
				}, ShouldNotPanic)
			})

			Convey("And it should record queue counters", func() {
				So(func() {
					RecordQueueEnqueue()
					RecordQueueDequeue()
					RecordQueueEnqueueError()
					RecordQueueProcessingLatency(20.0)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording worker metrics", func() {
			Convey("Then it should update worker count", func() {
				So(func() {
					UpdateWorkerCount(8)
					UpdateWorkerCount(16)
					UpdateWorkerCount(4)
				}, ShouldNotPanic)
			})

			Convey("And it should record worker latency and errors", func() {
				So(func() {
					RecordWorkerProcessingLatency(50.0)
					RecordWorkerProcessingLatency(75.0)
					RecordWorkerError()
				}, ShouldNotPanic)
			})
		})

		Convey("When recording system metrics", func() {
			Convey("Then it should update system gauges", func() {
				So(func() {
					UpdateSystemMemoryUsage(1024 * 1024 * 100)
					UpdateSystemGoroutineCount(100)
				}, ShouldNotPanic)
			})
		})
	})
}

func TestMetricsEdgeCases(t *testing.T) {
	Convey("Given metrics edge cases", t, func() {
		Convey("When recording metrics with edge values", func() {
			Convey("And using zero values", func() {
				So(func() {
					UpdateQueueSize(0)
					UpdateWorkerCount(0)
					UpdateRepositoryJobsTotal(0)
					RecordPipelineLatency(0.0)
					RecordHTTPRequestDuration("/test", "GET", "200", 0.0)
				}, ShouldNotPanic)
			})

			Convey("And using negative values", func() {
				So(func() {
					UpdateQueueSize(-100)
					UpdateWorkerCount(-10)
					UpdateRepositoryJobsTotal(-1000)
				}, ShouldNotPanic)
			})

			Convey("And using very large values", func() {
				So(func() {
					UpdateQueueSize(1000000)
					UpdateWorkerCount(10000)
					UpdateRepositoryJobsTotal(10000000)
					RecordPipelineLatency(10000.0)
					RecordHTTPRequestDuration("/test", "GET", "200", 30000.0)
				}, ShouldNotPanic)
			})

			Convey("And using empty strings", func() {
				So(func() {
					RecordHTTPRequest("", "", "200")
					RecordHTTPRequestDuration("", "", "200", 10.0)
					RecordErrorByComponent("", "")
					RecordErrorByEndpoint("", "", "")
				}, ShouldNotPanic)
			})

			Convey("And using special characters in labels", func() {
				So(func() {
					RecordHTTPRequest("/test?param=value&other=123", "GET", "200")
					RecordErrorByComponent("component-with-dash", "error_with_underscore")
					RecordErrorByEndpoint("/verifications/abc-123", "GET", "not_found")
				}, ShouldNotPanic)
			})
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given metrics concurrency", t, func() {
		Convey("When recording metrics concurrently", func() {
			done := make(chan bool, 10)

			for i := 0; i < 10; i++ {
				go func(id int) {
					for j := 0; j < 100; j++ {
						RecordVerificationProcessed()
						UpdateQueueSize(1000 + j)
						RecordPipelineLatency(float64(j))
						RecordHTTPRequest("/test", "GET", "200")
					}
					done <- true
				}(i)
			}

			for i := 0; i < 10; i++ {
				<-done
			}

			Convey("Then it should handle concurrent access without panics", func() {
				So(true, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRegistry(t *testing.T) {
	Convey("Given the custom registry", t, func() {
		Convey("When gathering after recording", func() {
			RecordVerificationProcessed()
			families, err := GetRegistry().Gather()

			Convey("Then it should expose registered metric families", func() {
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})
	})
}
