package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a dedicated registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors are registered under the configured names", func() {
				m.workoutMutations.WithLabelValues("created").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				var names []string
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_unit_workout_mutations_total")
			})
		})

		Convey("When empty options are given", func() {
			m := NewManager(WithNamespace(""), WithSubsystem(""), WithHistogramBuckets(nil), WithPrometheusRegistry(registry))

			Convey("Then defaults are kept", func() {
				So(m.namespace, ShouldEqual, "calorank")
				So(m.subsystem, ShouldEqual, "leaderboard")
				So(m.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording workout mutations", func() {
			before := testutil.ToFloat64(globalManager.workoutMutations.WithLabelValues("deleted"))
			RecordWorkoutMutation("deleted")
			RecordWorkoutMutation("deleted")

			Convey("Then the counter advances", func() {
				So(testutil.ToFloat64(globalManager.workoutMutations.WithLabelValues("deleted")), ShouldEqual, before+2)
			})
		})

		Convey("When recording subscriber failures", func() {
			before := testutil.ToFloat64(globalManager.subscriberFailures.WithLabelValues("leaderboard"))
			RecordSubscriberFailure("leaderboard")
			So(testutil.ToFloat64(globalManager.subscriberFailures.WithLabelValues("leaderboard")), ShouldEqual, before+1)
		})

		Convey("When setting the ranked users gauge", func() {
			UpdateRankedUsers(42)
			So(testutil.ToFloat64(globalManager.rankedUsers), ShouldEqual, 42)
		})

		Convey("Then the remaining recorders do not panic", func() {
			So(func() {
				RecordStoreLatency("create", 1.5)
				RecordFanoutLatency(0.3)
				RecordLeaderboardUpdate()
				RecordIndexLatency("range", 0.1)
				RecordHTTPRequest("leaderboard", "GET", "200")
				RecordHTTPRequestDuration("leaderboard", "GET", "200", 2)
				RecordErrorByComponent("repository", "backend")
				RecordErrorByType("server_error", "high")
				RecordErrorByEndpoint("workouts", "POST", "client_error")
				RecordErrorLatency("http", "client_error", 3)
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.2)
			}, ShouldNotPanic)
		})

		Convey("And the registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
