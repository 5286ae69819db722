package referralcode

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestGenerate(t *testing.T) {
	convey.Convey("Given identity emails", t, func() {
		convey.Convey("Then the code is the cleaned local part plus the suffix", func() {
			convey.So(Generate("marie@example.com"), convey.ShouldEqual, "marie123")
			convey.So(Generate("Jean.Dupont@example.com"), convey.ShouldEqual, "jeandupont123")
			convey.So(Generate("a_b-c+d@example.com"), convey.ShouldEqual, "abcd123")
		})

		convey.Convey("Then generation is deterministic", func() {
			convey.So(Generate("marie@example.com"), convey.ShouldEqual, Generate("marie@example.com"))
		})

		convey.Convey("When the email has no @", func() {
			convey.So(Generate("marie"), convey.ShouldEqual, "marie123")
		})

		convey.Convey("When the local part is empty after cleaning", func() {
			convey.So(Generate("___@example.com"), convey.ShouldEqual, "123")
			convey.So(Generate(""), convey.ShouldEqual, "123")
		})

		convey.Convey("Then distinct emails can collide after normalization", func() {
			// Known limitation of the scheme, pinned here on purpose.
			convey.So(Generate("jean.dupont@a.com"), convey.ShouldEqual, Generate("JeanDupont@b.org"))
		})
	})
}

func TestLink(t *testing.T) {
	convey.Convey("Given a base URL and an email", t, func() {
		convey.So(Link("https://example.com/devis", "marie@example.com"),
			convey.ShouldEqual, "https://example.com/devis?ref=marie123")

		convey.Convey("When the base URL is empty the default applies", func() {
			convey.So(Link("", "marie@example.com"),
				convey.ShouldEqual, DefaultBaseURL+"?ref=marie123")
		})
	})
}
