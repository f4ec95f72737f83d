package nullpolicy_test

import (
	"testing"

	"github.com/okian/fsingest/internal/domain/nullpolicy"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPolicy(t *testing.T) {
	Convey("Given the default exact-match policy", t, func() {
		p := nullpolicy.New()

		Convey("Then every sentinel token is missing", func() {
			for _, s := range []string{"NaN", "NA", "None", "none", "nan"} {
				So(p.Missing(s), ShouldBeTrue)
			}
		})

		Convey("Then the empty string is retained", func() {
			So(p.Missing(""), ShouldBeFalse)
		})

		Convey("Then case variants outside the set are retained", func() {
			So(p.Missing("na"), ShouldBeFalse)
			So(p.Missing("NONE"), ShouldBeFalse)
			So(p.Missing("NAN"), ShouldBeFalse)
		})

		Convey("Then ordinary values are retained", func() {
			So(p.Missing("u1"), ShouldBeFalse)
			So(p.Missing("0"), ShouldBeFalse)
			So(p.Missing(" NaN"), ShouldBeFalse)
			So(p.FoldsCase(), ShouldBeFalse)
		})
	})

	Convey("Given a case-folding policy", t, func() {
		p := nullpolicy.New(nullpolicy.WithCaseFold(true))

		Convey("Then case variants are missing too", func() {
			So(p.Missing("na"), ShouldBeTrue)
			So(p.Missing("NONE"), ShouldBeTrue)
			So(p.Missing("NAN"), ShouldBeTrue)
			So(p.Missing("nA"), ShouldBeTrue)
		})

		Convey("Then the empty string is still retained", func() {
			So(p.Missing(""), ShouldBeFalse)
			So(p.FoldsCase(), ShouldBeTrue)
		})
	})
}
