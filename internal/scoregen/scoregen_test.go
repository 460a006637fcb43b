package scoregen

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/hiscore/internal/adapters/http/api"
	"github.com/okian/hiscore/internal/adapters/repository"
	service "github.com/okian/hiscore/internal/app"
	"github.com/okian/hiscore/internal/domain/model"
	"github.com/okian/hiscore/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestGenerate(t *testing.T) {
	Convey("Given a seeded config", t, func() {
		cfg := &Config{NumScores: 200, DuplicateRatio: 0.25, Seed: 42}

		Convey("Then generation is deterministic", func() {
			a := Generate(cfg, "run1")
			b := Generate(cfg, "run1")
			So(a, ShouldResemble, b)
		})

		Convey("Then every repeat copies the entry before it", func() {
			subs := Generate(cfg, "run1")
			repeats := 0
			for i, s := range subs {
				So(s.Score, ShouldBeBetweenOrEqual, minScore, maxScore)
				if s.Repeat {
					repeats++
					So(i, ShouldBeGreaterThan, 0)
					So(subs[i-1].Repeat, ShouldBeFalse)
					So(s.PlayerName, ShouldEqual, subs[i-1].PlayerName)
					So(s.Score, ShouldEqual, subs[i-1].Score)
				}
			}
			So(len(subs), ShouldEqual, cfg.NumScores+repeats)
			So(repeats, ShouldBeGreaterThan, 0)
		})

		Convey("Then names carry the run tag", func() {
			subs := Generate(cfg, "tagXYZ")
			So(subs[0].PlayerName, ShouldContainSubstring, "-tagXYZ-0")
		})
	})

	Convey("Given no duplicate ratio", t, func() {
		subs := Generate(&Config{NumScores: 50, Seed: 7}, "r")

		Convey("Then nothing repeats", func() {
			So(len(subs), ShouldEqual, 50)
		})
	})
}

func rec(id, score int64) model.ScoreRecord {
	return model.ScoreRecord{ID: id, PlayerName: "p", Score: score}
}

func TestVerify(t *testing.T) {
	Convey("Given a leaderboard", t, func() {
		Convey("When it is ranked and complete", func() {
			board := []model.ScoreRecord{rec(2, 90), rec(1, 50), rec(3, 50)}
			So(Verify(board, board, 10), ShouldBeNil)
		})

		Convey("When ties are out of id order", func() {
			board := []model.ScoreRecord{rec(3, 50), rec(1, 50)}
			So(errors.Is(Verify(board, nil, 10), ErrNotRanked), ShouldBeTrue)
		})

		Convey("When it is longer than requested", func() {
			board := []model.ScoreRecord{rec(1, 3), rec(2, 2), rec(3, 1)}
			So(errors.Is(Verify(board, nil, 2), ErrTooLong), ShouldBeTrue)
		})

		Convey("When a created record is missing from a short list", func() {
			board := []model.ScoreRecord{rec(1, 3)}
			created := []model.ScoreRecord{rec(1, 3), rec(2, 1)}
			So(errors.Is(Verify(board, created, 10), ErrMissingTop), ShouldBeTrue)
		})

		Convey("When a created score above the floor is missing from a full list", func() {
			board := []model.ScoreRecord{rec(1, 100), rec(2, 80)}
			created := []model.ScoreRecord{rec(3, 90)}
			So(errors.Is(Verify(board, created, 2), ErrMissingTop), ShouldBeTrue)
		})

		Convey("When only scores at or below the floor are missing", func() {
			board := []model.ScoreRecord{rec(1, 100), rec(2, 80)}
			created := []model.ScoreRecord{rec(3, 80), rec(4, 10)}
			So(Verify(board, created, 2), ShouldBeNil)
		})
	})

	Convey("Given duplicate counts", t, func() {
		So(VerifyDuplicates(&Stats{Duplicate: 3, ExpectedDuplicates: 3}), ShouldBeNil)
		So(errors.Is(VerifyDuplicates(&Stats{Duplicate: 2, ExpectedDuplicates: 3}), ErrDuplicateCount), ShouldBeTrue)
		So(VerifyDuplicates(&Stats{Offline: 1, ExpectedDuplicates: 3}), ShouldBeNil)
	})
}

func newTestServer(t *testing.T, settings repository.Settings) (*httptest.Server, *service.Service) {
	svc := service.New(service.WithOpener(service.RepositoryOpener(settings)))
	svc.Initialize(context.Background())

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		svc.Stop()
	})
	return srv, svc
}

func TestRun(t *testing.T) {
	Convey("Given a live service on a flat file", t, func() {
		srv, _ := newTestServer(t, repository.Settings{
			Kind:       repository.KindFile,
			ScoresFile: filepath.Join(t.TempDir(), "scores.json"),
		})

		cfg := &Config{
			BaseURL:        srv.URL,
			NumScores:      40,
			DuplicateRatio: 0.3,
			TopN:           10,
			Workers:        4,
			Timeout:        5 * time.Second,
			Seed:           1,
		}

		Convey("When running the generator", func() {
			stats, err := Run(context.Background(), cfg)

			Convey("Then every score is stored and every repeat rejected", func() {
				So(err, ShouldBeNil)
				So(stats.Created, ShouldEqual, 40)
				So(stats.Duplicate, ShouldEqual, stats.ExpectedDuplicates)
				So(stats.Failed, ShouldEqual, 0)
				So(stats.LeaderboardEntries, ShouldEqual, 10)
				So(len(stats.CreatedRecords()), ShouldEqual, 40)
			})
		})
	})

	Convey("Given a service that starts offline", t, func() {
		srv, _ := newTestServer(t, repository.Settings{Kind: repository.KindSQL})
		cfg := &Config{BaseURL: srv.URL, NumScores: 5, TopN: 10, Workers: 1, Timeout: time.Second}

		Convey("Then the run stops at the health check", func() {
			_, err := Run(context.Background(), cfg)
			So(errors.Is(err, ErrOffline), ShouldBeTrue)
		})
	})
}
