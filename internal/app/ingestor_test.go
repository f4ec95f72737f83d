package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/fsingest/internal/app"
	"github.com/okian/fsingest/internal/domain/model"
	"github.com/okian/fsingest/internal/domain/record"
	"github.com/okian/fsingest/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type putCall struct {
	group  string
	record model.FeatureRecord
}

// mockPutter records every call and rejects the rows whose rowID is listed.
type mockPutter struct {
	mu     sync.Mutex
	calls  []putCall
	reject map[string]bool
}

func (m *mockPutter) Put(_ context.Context, group string, rec model.FeatureRecord) model.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, putCall{group: group, record: rec})
	id, _ := rec.Get("rowID")
	if m.reject[id] {
		return model.RejectStatus(500, "InternalFailure")
	}
	return model.Accept()
}

func (m *mockPutter) callsFor(rowID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if v, _ := c.record.Get("rowID"); v == rowID {
			n++
		}
	}
	return n
}

var (
	columns = []string{"rowID", "timestamp", "rating"}
	fixedAt = time.Unix(1700000000, 0)
)

func rows(n int) []model.Row {
	out := make([]model.Row, n)
	for i := range out {
		out[i] = model.Row{"rowID": i, "timestamp": "2021-01-01", "rating": 4.0}
	}
	return out
}

func newIngestor(p *mockPutter, opts ...app.Option) *app.BatchIngestor {
	b := record.NewBuilder(record.WithClock(record.FixedClock(fixedAt)))
	return app.New(p, append([]app.Option{app.WithBuilder(b)}, opts...)...)
}

func TestIngestAll(t *testing.T) {
	ctx := context.Background()

	Convey("Given five rows where the store rejects row 2", t, func() {
		p := &mockPutter{reject: map[string]bool{"2": true}}
		s := newIngestor(p)

		tally, err := s.IngestAll(ctx, rows(5), columns, "ratings")

		Convey("Then the batch continues past the rejection", func() {
			So(err, ShouldBeNil)
			So(tally.Accepted, ShouldEqual, 4)
			So(tally.Rejected, ShouldHaveLength, 1)
			So(tally.Rejected[0].RowIndex, ShouldEqual, 2)
			So(tally.Rejected[0].Reason, ShouldEqual, "status 500: InternalFailure")
			So(tally.Total(), ShouldEqual, 5)
		})

		Convey("Then every row is put exactly once, in order, to the group", func() {
			So(p.calls, ShouldHaveLength, 5)
			for i, c := range p.calls {
				So(c.group, ShouldEqual, "ratings")
				id, _ := c.record.Get("rowID")
				So(id, ShouldEqual, []string{"0", "1", "2", "3", "4"}[i])
			}
		})

		Convey("Then records skip the time axis and end with EventTime", func() {
			So(p.calls[0].record.Names(), ShouldResemble, []string{"rowID", "rating", model.EventTimeFeature})
			v, _ := p.calls[0].record.Get("rating")
			So(v, ShouldEqual, "4")
		})
	})

	Convey("Given an empty dataset", t, func() {
		p := &mockPutter{}
		tally, err := newIngestor(p).IngestAll(ctx, nil, columns, "ratings")

		Convey("Then nothing is attempted", func() {
			So(err, ShouldBeNil)
			So(tally.Total(), ShouldEqual, 0)
			So(p.calls, ShouldBeEmpty)
		})
	})

	Convey("Given an empty feature group", t, func() {
		p := &mockPutter{}
		_, err := newIngestor(p).IngestAll(ctx, rows(3), columns, "")

		Convey("Then the batch fails before any row", func() {
			So(errors.Is(err, app.ErrInvalidConfig), ShouldBeTrue)
			So(p.calls, ShouldBeEmpty)
		})
	})

	Convey("Given fail-fast", t, func() {
		p := &mockPutter{reject: map[string]bool{"1": true}}
		tally, err := newIngestor(p, app.WithFailFast(true)).IngestAll(ctx, rows(5), columns, "ratings")

		Convey("Then the batch stops at the first rejection", func() {
			So(errors.Is(err, app.ErrAborted), ShouldBeTrue)
			So(tally.Accepted, ShouldEqual, 1)
			So(tally.Rejected, ShouldResemble, []model.Rejection{{RowIndex: 1, Reason: "status 500: InternalFailure"}})
			So(p.calls, ShouldHaveLength, 2)
		})
	})

	Convey("Given a limit of two consecutive rejections", t, func() {
		p := &mockPutter{reject: map[string]bool{"0": true, "2": true, "3": true}}
		tally, err := newIngestor(p, app.WithMaxConsecutiveRejections(2)).IngestAll(ctx, rows(6), columns, "ratings")

		Convey("Then an isolated rejection does not stop it but a run of two does", func() {
			So(errors.Is(err, app.ErrAborted), ShouldBeTrue)
			So(tally.Accepted, ShouldEqual, 1)
			So(tally.Rejected, ShouldHaveLength, 3)
			So(p.calls, ShouldHaveLength, 4)
		})
	})

	Convey("Given a cancelled context", t, func() {
		p := &mockPutter{}
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		tally, err := newIngestor(p).IngestAll(cctx, rows(3), columns, "ratings")

		Convey("Then no row is attempted", func() {
			So(err, ShouldEqual, context.Canceled)
			So(tally.Total(), ShouldEqual, 0)
		})
	})
}

func TestIngestAllParallel(t *testing.T) {
	ctx := context.Background()

	Convey("Given many rows and four workers", t, func() {
		p := &mockPutter{reject: map[string]bool{"7": true, "3": true, "42": true}}
		s := newIngestor(p, app.WithWorkerCount(4), app.WithQueueSize(8))

		tally, err := s.IngestAll(ctx, rows(100), columns, "ratings")

		Convey("Then the tally matches a sequential run", func() {
			So(err, ShouldBeNil)
			So(tally.Accepted, ShouldEqual, 97)
			So(tally.Rejected, ShouldHaveLength, 3)
			So(tally.Rejected[0].RowIndex, ShouldEqual, 3)
			So(tally.Rejected[1].RowIndex, ShouldEqual, 7)
			So(tally.Rejected[2].RowIndex, ShouldEqual, 42)
		})

		Convey("Then no row is attempted twice", func() {
			So(p.calls, ShouldHaveLength, 100)
			So(p.callsFor("42"), ShouldEqual, 1)
		})
	})

	Convey("Given fail-fast with workers", t, func() {
		p := &mockPutter{reject: map[string]bool{"0": true}}
		s := newIngestor(p, app.WithWorkerCount(3), app.WithFailFast(true))

		tally, err := s.IngestAll(ctx, rows(200), columns, "ratings")

		Convey("Then the batch aborts with the rejection in the tally", func() {
			So(errors.Is(err, app.ErrAborted), ShouldBeTrue)
			So(tally.Rejected, ShouldNotBeEmpty)
			So(tally.Rejected[0].RowIndex, ShouldEqual, 0)
			So(tally.Total(), ShouldEqual, len(p.calls))
		})
	})
}

func TestRunID(t *testing.T) {
	Convey("Each ingestor gets a run ID unless one is given", t, func() {
		a := app.New(&mockPutter{})
		b := app.New(&mockPutter{})
		So(a.RunID(), ShouldNotBeEmpty)
		So(a.RunID(), ShouldNotEqual, b.RunID())
		So(app.New(&mockPutter{}, app.WithRunID("run-1")).RunID(), ShouldEqual, "run-1")
	})
}

func TestTracker(t *testing.T) {
	Convey("Given an ingestor sharing a tracker", t, func() {
		tr := app.NewTracker("run-7")
		p := &mockPutter{reject: map[string]bool{"1": true}}
		s := newIngestor(p, app.WithTracker(tr), app.WithRunID("run-7"))
		So(s.Tracker(), ShouldEqual, tr)
		So(tr.Progress().Phase, ShouldEqual, app.PhaseStarting)

		_, err := s.IngestAll(context.Background(), rows(4), columns, "ratings")
		So(err, ShouldBeNil)

		Convey("Then the tracker reflects the finished batch", func() {
			So(tr.Progress(), ShouldResemble, app.Progress{
				RunID:     "run-7",
				Phase:     app.PhaseDone,
				Rows:      4,
				Attempted: 4,
				Accepted:  3,
				Rejected:  1,
			})
		})
	})
}
