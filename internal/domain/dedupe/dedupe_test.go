package dedupe_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	dedupe "github.com/okian/fsingest/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		ctx := context.Background()

		Convey("When creating a deduper with default options", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should start empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})

			Convey("Then it still records rows through the overflow map", func() {
				So(d.SeenAndRecord(ctx, 3), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, 3), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When recording rows inside the capacity", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithCapacity(100))

			for i := 0; i < 100; i++ {
				So(d.SeenAndRecord(ctx, i), ShouldBeFalse)
			}

			Convey("Then every row is seen on the second attempt", func() {
				for i := 0; i < 100; i++ {
					So(d.SeenAndRecord(ctx, i), ShouldBeTrue)
				}
				So(d.Size(), ShouldEqual, 100)
			})
		})

		Convey("When recording rows outside the capacity", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithCapacity(10))

			So(d.SeenAndRecord(ctx, 10), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, -1), ShouldBeFalse)

			Convey("Then they are tracked as well", func() {
				So(d.SeenAndRecord(ctx, 10), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, -1), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 2)
			})
		})

		Convey("When many goroutines race on the same rows", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithCapacity(64))
			var fresh atomic.Int64
			var wg sync.WaitGroup
			for g := 0; g < 8; g++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < 64; i++ {
						if !d.SeenAndRecord(ctx, i) {
							fresh.Add(1)
						}
					}
				}()
			}
			wg.Wait()

			Convey("Then each row is recorded exactly once", func() {
				So(fresh.Load(), ShouldEqual, 64)
				So(d.Size(), ShouldEqual, 64)
			})
		})
	})
}
