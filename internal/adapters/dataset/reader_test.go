package dataset_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/fsingest/internal/adapters/dataset"
	"github.com/okian/fsingest/internal/adapters/storage"
	"github.com/okian/fsingest/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const ratings = `ratingID,timestamp,userID,placeID,rating_overall
1,2021-01-01 10:00:00,U1,P1,2
2,2021-01-01 11:00:00,na,P2,
3,2021-01-02 09:00:00,U3,P1,1.0
`

func TestDecode(t *testing.T) {
	Convey("Given a CSV with a header", t, func() {
		r := dataset.NewReader(storage.New(nil))

		ds, err := r.Decode(strings.NewReader(ratings))

		Convey("Then columns keep header order and rows keep file order", func() {
			So(err, ShouldBeNil)
			So(ds.Columns, ShouldResemble, []string{"ratingID", "timestamp", "userID", "placeID", "rating_overall"})
			So(ds.Rows, ShouldHaveLength, 3)
			So(ds.Rows[0]["ratingID"], ShouldEqual, "1")
			So(ds.Rows[2]["rating_overall"], ShouldEqual, "1.0")
		})

		Convey("Then empty cells decode to nil", func() {
			v, ok := ds.Rows[1]["rating_overall"]
			So(ok, ShouldBeTrue)
			So(v, ShouldBeNil)
		})
	})

	Convey("Empty cells stay strings when asked", t, func() {
		r := dataset.NewReader(storage.New(nil), dataset.WithEmptyAsNil(false))
		ds, err := r.Decode(strings.NewReader(ratings))
		So(err, ShouldBeNil)
		So(ds.Rows[1]["rating_overall"], ShouldEqual, "")
	})

	Convey("An empty input has no header", t, func() {
		r := dataset.NewReader(storage.New(nil))
		_, err := r.Decode(strings.NewReader(""))
		So(err, ShouldEqual, dataset.ErrEmpty)
	})

	Convey("A ragged row fails", t, func() {
		r := dataset.NewReader(storage.New(nil))
		_, err := r.Decode(strings.NewReader("a,b\n1\n"))
		So(err, ShouldNotBeNil)
	})
}

func TestOrdering(t *testing.T) {
	Convey("Given ordering is required on timestamp", t, func() {
		r := dataset.NewReader(storage.New(nil), dataset.WithRequireOrdered("timestamp"))

		Convey("Ascending rows pass", func() {
			_, err := r.Decode(strings.NewReader(ratings))
			So(err, ShouldBeNil)
		})

		Convey("A step backwards fails", func() {
			_, err := r.Decode(strings.NewReader("timestamp,v\n2021-01-02,1\n2021-01-01,2\n"))
			So(errors.Is(err, dataset.ErrUnordered), ShouldBeTrue)
		})

		Convey("A missing column fails", func() {
			_, err := r.Decode(strings.NewReader("ts,v\n1,2\n"))
			So(errors.Is(err, dataset.ErrMissingColumn), ShouldBeTrue)
		})
	})
}

func TestRead(t *testing.T) {
	Convey("Given a dataset file", t, func() {
		path := filepath.Join(t.TempDir(), "ratings.csv")
		So(os.WriteFile(path, []byte(ratings), 0o600), ShouldBeNil)
		r := dataset.NewReader(storage.New(nil))

		Convey("Read loads it", func() {
			ds, err := r.Read(context.Background(), path)
			So(err, ShouldBeNil)
			So(ds.Rows, ShouldHaveLength, 3)
		})

		Convey("A missing location is reported", func() {
			_, err := r.Read(context.Background(), path+".missing")
			So(err, ShouldEqual, storage.ErrNotFound)
		})
	})
}
