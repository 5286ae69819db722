package lead

import (
	"testing"

	xerrors "referral-service/internal/pkg/errors"

	"github.com/smartystreets/goconvey/convey"
)

func TestParseStatus(t *testing.T) {
	convey.Convey("Given raw status values from the persistence layer", t, func() {
		convey.Convey("Then known values map to themselves", func() {
			convey.So(ParseStatus("pending"), convey.ShouldEqual, StatusPending)
			convey.So(ParseStatus("confirmed"), convey.ShouldEqual, StatusConfirmed)
			convey.So(ParseStatus("paid"), convey.ShouldEqual, StatusPaid)
		})

		convey.Convey("Then empty and unknown values default to pending", func() {
			convey.So(ParseStatus(""), convey.ShouldEqual, StatusPending)
			convey.So(ParseStatus("archived"), convey.ShouldEqual, StatusPending)
			convey.So(ParseStatus("PAID"), convey.ShouldEqual, StatusPending)
		})
	})
}

func TestTransition(t *testing.T) {
	convey.Convey("Given the forward-only sales funnel", t, func() {
		convey.Convey("When moving one step forward", func() {
			next, err := Transition("l1", StatusPending, StatusConfirmed)
			convey.So(err, convey.ShouldBeNil)
			convey.So(next, convey.ShouldEqual, StatusConfirmed)

			next, err = Transition("l1", StatusConfirmed, StatusPaid)
			convey.So(err, convey.ShouldBeNil)
			convey.So(next, convey.ShouldEqual, StatusPaid)
		})

		convey.Convey("When requesting the state the lead is already in", func() {
			convey.Convey("Then the request is an idempotent no-op", func() {
				next, err := Transition("l1", StatusConfirmed, StatusConfirmed)
				convey.So(err, convey.ShouldBeNil)
				convey.So(next, convey.ShouldEqual, StatusConfirmed)

				next, err = Transition("l1", StatusPaid, StatusPaid)
				convey.So(err, convey.ShouldBeNil)
				convey.So(next, convey.ShouldEqual, StatusPaid)
			})
		})

		convey.Convey("When skipping pending straight to paid", func() {
			next, err := Transition("l1", StatusPending, StatusPaid)
			convey.So(xerrors.IsInvalidTransition(err), convey.ShouldBeTrue)
			convey.So(next, convey.ShouldEqual, StatusPending)
		})

		convey.Convey("When moving backward", func() {
			_, err := Transition("l1", StatusPaid, StatusConfirmed)
			convey.So(xerrors.IsInvalidTransition(err), convey.ShouldBeTrue)

			_, err = Transition("l1", StatusConfirmed, StatusPending)
			convey.So(xerrors.IsInvalidTransition(err), convey.ShouldBeTrue)
		})

		convey.Convey("When the error is inspected", func() {
			_, err := Transition("lead-42", StatusPending, StatusPaid)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "lead-42")
			convey.So(err.Error(), convey.ShouldContainSubstring, "pending")
			convey.So(err.Error(), convey.ShouldContainSubstring, "paid")
		})

		convey.Convey("When the inputs are unknown strings", func() {
			convey.Convey("Then they are parsed before the rule applies", func() {
				next, err := Transition("l1", Status("garbage"), StatusConfirmed)
				convey.So(err, convey.ShouldBeNil)
				convey.So(next, convey.ShouldEqual, StatusConfirmed)
			})
		})
	})
}

func TestReached(t *testing.T) {
	convey.Convey("Given funnel positions", t, func() {
		convey.So(StatusPaid.Reached(StatusConfirmed), convey.ShouldBeTrue)
		convey.So(StatusConfirmed.Reached(StatusConfirmed), convey.ShouldBeTrue)
		convey.So(StatusPending.Reached(StatusConfirmed), convey.ShouldBeFalse)
		convey.So(StatusPending.Reached(StatusPending), convey.ShouldBeTrue)
	})
}
