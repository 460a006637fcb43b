package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	service "github.com/okian/hiscore/internal/app"
	"github.com/okian/hiscore/internal/adapters/repository"
	"github.com/okian/hiscore/internal/domain/model"
	"github.com/okian/hiscore/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceIntegration(t *testing.T) {
	backends := []struct {
		name     string
		settings func(dir string) repository.Settings
	}{
		{"file", func(dir string) repository.Settings {
			return repository.Settings{Kind: repository.KindFile, ScoresFile: filepath.Join(dir, "scores.json")}
		}},
		{"sqlite", func(dir string) repository.Settings {
			return repository.Settings{Kind: repository.KindSQL, DatabaseURL: "sqlite://" + filepath.Join(dir, "scores.db")}
		}},
	}

	for _, b := range backends {
		Convey("Given a service on the "+b.name+" backend", t, func() {
			ctx := context.Background()
			clock := newFakeClock()
			settings := b.settings(t.TempDir())

			svc := service.New(
				service.WithOpener(service.RepositoryOpener(settings, repository.WithClock(clock.Now))),
				service.WithClock(clock.Now),
			)
			svc.Initialize(ctx)
			defer svc.Stop()

			So(svc.Available(), ShouldBeTrue)

			Convey("When submitting scores end-to-end", func() {
				first, err := svc.Submit(ctx, model.Submission{PlayerName: strPtr("Alice"), Score: intPtr(100)})
				So(err, ShouldBeNil)
				So(first.Record.ID, ShouldEqual, 1)

				_, err = svc.Submit(ctx, model.Submission{PlayerName: strPtr("Alice"), Score: intPtr(100)})
				So(errors.Is(err, service.ErrDuplicateSubmission), ShouldBeTrue)

				clock.Advance(61 * time.Second)
				again, err := svc.Submit(ctx, model.Submission{PlayerName: strPtr("Alice"), Score: intPtr(100)})
				So(err, ShouldBeNil)
				So(again.Record.ID, ShouldEqual, 2)

				_, err = svc.Submit(ctx, model.Submission{Score: intPtr(150)})
				So(err, ShouldBeNil)
				_, err = svc.Submit(ctx, model.Submission{PlayerName: strPtr("Bob"), Score: intPtr(50)})
				So(err, ShouldBeNil)

				Convey("Then the leaderboard is ranked", func() {
					top := svc.TopN(ctx, 10)
					So(len(top), ShouldEqual, 4)
					So(ranking.IsRanked(top), ShouldBeTrue)
					So(top[0].PlayerName, ShouldEqual, model.AnonymousPlayer)
					So(top[1].ID, ShouldEqual, 1)
					So(top[2].ID, ShouldEqual, 2)
					So(top[3].PlayerName, ShouldEqual, "Bob")
				})

				Convey("And a restarted service sees the same records", func() {
					svc.Stop()

					next := service.New(
						service.WithOpener(service.RepositoryOpener(settings, repository.WithClock(clock.Now))),
						service.WithClock(clock.Now),
					)
					next.Initialize(ctx)
					defer next.Stop()

					So(len(next.TopN(ctx, 100)), ShouldEqual, 4)

					_, err := next.Submit(ctx, model.Submission{PlayerName: strPtr("Bob"), Score: intPtr(50)})
					So(errors.Is(err, service.ErrDuplicateSubmission), ShouldBeTrue)
				})
			})
		})
	}
}

func TestServiceIntegration_FileBecomesUnreadable(t *testing.T) {
	Convey("Given a service on a flat file", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "scores.json")
		svc := service.New(service.WithOpener(service.RepositoryOpener(repository.Settings{
			Kind:       repository.KindFile,
			ScoresFile: path,
		})))
		svc.Initialize(ctx)
		defer svc.Stop()

		_, err := svc.Submit(ctx, model.Submission{PlayerName: strPtr("Alice"), Score: intPtr(1)})
		So(err, ShouldBeNil)

		Convey("When the file is corrupted behind its back", func() {
			So(os.WriteFile(path, []byte("not json"), 0o644), ShouldBeNil)
			res, err := svc.Submit(ctx, model.Submission{PlayerName: strPtr("Bob"), Score: intPtr(2)})

			Convey("Then the service degrades and stays degraded after repair", func() {
				So(err, ShouldBeNil)
				So(res.Message, ShouldEqual, service.MessageSaveFailed)

				So(os.WriteFile(path, []byte("[]"), 0o644), ShouldBeNil)
				So(svc.TopN(ctx, 10), ShouldBeEmpty)
				So(svc.Available(), ShouldBeFalse)
			})
		})
	})

	Convey("Given a corrupt file at startup", t, func() {
		path := filepath.Join(t.TempDir(), "scores.json")
		So(os.WriteFile(path, []byte("{"), 0o644), ShouldBeNil)

		svc := service.New(service.WithOpener(service.RepositoryOpener(repository.Settings{
			Kind:       repository.KindFile,
			ScoresFile: path,
		})))
		svc.Initialize(context.Background())

		Convey("Then the service starts degraded", func() {
			So(svc.State(), ShouldEqual, service.StateDegraded)
			So(svc.Backend(), ShouldEqual, "none")
		})
	})
}
