package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	service "github.com/okian/veridoc/internal/app"
	"github.com/okian/veridoc/internal/domain/model"
	"github.com/okian/veridoc/internal/domain/types"
	"github.com/okian/veridoc/internal/domain/verification"
	. "github.com/smartystreets/goconvey/convey"
)

const integrationMRZ = "P<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<\nL898902C36UTO7408122F1204159ZE184226B<<<<<10"

// waitForTerminal polls the job record until it leaves the pending and
// processing states or the deadline passes.
func waitForTerminal(ctx context.Context, svc *service.Service, id string, timeout time.Duration) (types.JobRecord, error) {
	deadline := time.Now().Add(timeout)
	for {
		rec, err := svc.Job(ctx, id)
		if err != nil {
			return types.JobRecord{}, err
		}
		if rec.Status == types.JobDone || rec.Status == types.JobFailed {
			return rec, nil
		}
		if time.Now().After(deadline) {
			return rec, fmt.Errorf("job %s still %s after %v", id, rec.Status, timeout)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service with full integration", t, func() {
		svc := service.New(
			service.WithWorkerCount(2),
			service.WithQueueSize(1000),
			service.WithDedupeSize(500),
		)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		Convey("When starting the service", func() {
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
			})

			Convey("And the service should be running", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
			})
		})

		Convey("When processing verification jobs end-to-end", func() {
			err := svc.Start(ctx)
			So(err, ShouldBeNil)

			// Give service time to start
			time.Sleep(100 * time.Millisecond)

			Convey("And submitting a text document", func() {
				id, ok := svc.SubmitJob(ctx, "req-int-1", verification.Input{
					Text: integrationMRZ,
					Applicant: model.Applicant{
						FullName:       "Anna Maria Eriksson",
						DateOfBirth:    "1974-08-12",
						PassportNumber: "L898902C3",
						Nationality:    "UTO",
					},
				})
				So(ok, ShouldBeTrue)
				So(id, ShouldNotBeEmpty)

				Convey("Then the job should reach a terminal state with a report", func() {
					rec, err := waitForTerminal(ctx, svc, id, 5*time.Second)
					So(err, ShouldBeNil)
					So(rec.Status, ShouldEqual, types.JobDone)
					So(rec.Report, ShouldNotBeNil)
					So(rec.Report.MRZValid, ShouldBeTrue)
					So(rec.Report.Summary, ShouldNotBeEmpty)
					So(rec.RequestID, ShouldEqual, "req-int-1")
				})
			})

			Convey("And submitting an image without an OCR engine", func() {
				id, ok := svc.SubmitJob(ctx, "req-int-2", verification.Input{
					Image: []byte{0xff, 0xd8, 0xff},
					Applicant: model.Applicant{
						FullName: "Anna Maria Eriksson",
					},
				})
				So(ok, ShouldBeTrue)

				Convey("Then the job should fail with a recorded cause", func() {
					rec, err := waitForTerminal(ctx, svc, id, 5*time.Second)
					So(err, ShouldBeNil)
					So(rec.Status, ShouldEqual, types.JobFailed)
					So(rec.Report, ShouldBeNil)
					So(rec.Error, ShouldNotBeEmpty)
				})
			})

			Convey("And submitting many documents concurrently", func() {
				const jobCount = 50
				ids := make([]string, 0, jobCount)
				for i := 0; i < jobCount; i++ {
					id, ok := svc.SubmitJob(ctx, fmt.Sprintf("req-int-bulk-%d", i), verification.Input{
						Text: integrationMRZ,
						Applicant: model.Applicant{
							FullName:    "Anna Maria Eriksson",
							DateOfBirth: "1974-08-12",
							Nationality: "UTO",
						},
					})
					So(ok, ShouldBeTrue)
					ids = append(ids, id)
				}

				Convey("Then every job should complete", func() {
					for _, id := range ids {
						rec, err := waitForTerminal(ctx, svc, id, 10*time.Second)
						So(err, ShouldBeNil)
						So(rec.Status, ShouldEqual, types.JobDone)
					}
				})

				Convey("And the stats should reflect the stored jobs", func() {
					for _, id := range ids {
						_, err := waitForTerminal(ctx, svc, id, 10*time.Second)
						So(err, ShouldBeNil)
					}
					stats := svc.GetStats()
					So(stats["storedJobs"], ShouldBeGreaterThanOrEqualTo, jobCount)
				})
			})

			Convey("And checking a request id twice", func() {
				seen := svc.SeenAndRecord(ctx, "req-int-dup")
				So(seen, ShouldBeFalse)

				Convey("Then the second check should flag the duplicate", func() {
					So(svc.SeenAndRecord(ctx, "req-int-dup"), ShouldBeTrue)
				})
			})
		})
	})
}

func TestServiceIntegration_Restart(t *testing.T) {
	Convey("Given a service that has been stopped", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		svc := service.New(
			service.WithWorkerCount(2),
			service.WithQueueSize(100),
		)
		So(svc.Start(ctx), ShouldBeNil)
		svc.Stop()

		Convey("When starting it again", func() {
			err := svc.Start(ctx)
			defer svc.Stop()

			Convey("Then it should come back up cleanly", func() {
				So(err, ShouldBeNil)
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
			})

			Convey("And it should process jobs again", func() {
				So(err, ShouldBeNil)
				id, ok := svc.SubmitJob(ctx, "req-restart-1", verification.Input{
					Text: integrationMRZ,
					Applicant: model.Applicant{
						FullName: "Anna Maria Eriksson",
					},
				})
				So(ok, ShouldBeTrue)

				rec, err := waitForTerminal(ctx, svc, id, 5*time.Second)
				So(err, ShouldBeNil)
				So(rec.Status, ShouldEqual, types.JobDone)
			})
		})
	})
}
