package memory

import (
	"context"
	"testing"

	"referral-service/internal/stream"

	"github.com/smartystreets/goconvey/convey"
)

func TestFeedCloseIsIdempotent(t *testing.T) {
	convey.Convey("Given a source with a live subscription", t, func() {
		source := NewLeadSource()
		ch, stop, err := source.SubscribeLeads(context.Background(), stream.ScopeAll())
		convey.So(err, convey.ShouldBeNil)

		// initial snapshot is buffered on subscribe
		<-ch

		convey.Convey("When the feed drops and the subscriber later unsubscribes", func() {
			convey.So(source.DropFeed, convey.ShouldNotPanic)
			convey.So(stop, convey.ShouldNotPanic)

			_, open := <-ch
			convey.So(open, convey.ShouldBeFalse)
		})

		convey.Convey("When the subscriber unsubscribes before the feed drops", func() {
			convey.So(stop, convey.ShouldNotPanic)
			convey.So(source.DropFeed, convey.ShouldNotPanic)

			convey.Convey("And repeated unsubscribes stay harmless", func() {
				convey.So(stop, convey.ShouldNotPanic)
			})
		})
	})
}
