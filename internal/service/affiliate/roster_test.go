package affiliate

import (
	"testing"
	"time"

	"referral-service/internal/domain/affiliate"
	"referral-service/internal/domain/lead"

	"github.com/smartystreets/goconvey/convey"
)

func day(d int) time.Time {
	return time.Date(2026, 4, d, 0, 0, 0, 0, time.UTC)
}

func TestBuildRoster(t *testing.T) {
	convey.Convey("Given a lead set spanning several affiliates", t, func() {
		leads := []lead.Lead{
			{ID: "l1", AffiliateID: "A", AffiliateEmail: "alice@example.com", Commission: 100, CreatedAt: day(3), Status: lead.StatusPaid},
			{ID: "l2", AffiliateID: "A", AffiliateEmail: "alice@example.com", Commission: 50, CreatedAt: day(1), Status: lead.StatusConfirmed},
			{ID: "l3", AffiliateID: "B", AffiliateEmail: "bob@example.com", Commission: 0, CreatedAt: day(2), Status: lead.StatusPending},
			{ID: "l4", AffiliateID: "", CreatedAt: day(1)},
		}

		roster := BuildRoster(leads)

		convey.Convey("Then one entry exists per referenced affiliate", func() {
			convey.So(roster, convey.ShouldHaveLength, 2)
		})

		convey.Convey("Then entries sort by earliest lead date", func() {
			convey.So(roster[0].ID, convey.ShouldEqual, "A")
			convey.So(roster[1].ID, convey.ShouldEqual, "B")
		})

		convey.Convey("Then aggregates come from the owned leads", func() {
			a := roster[0]
			convey.So(a.ClientsCount, convey.ShouldEqual, 2)
			convey.So(a.TotalCommissions, convey.ShouldEqual, 150)
			convey.So(a.JoinDate, convey.ShouldEqual, day(1))
			convey.So(a.Email, convey.ShouldEqual, "alice@example.com")
			convey.So(a.Name, convey.ShouldEqual, "alice")
			convey.So(a.Status, convey.ShouldEqual, affiliate.StatusActive)
		})

		convey.Convey("When an affiliate's last lead disappears", func() {
			rebuilt := BuildRoster(leads[:2])

			convey.Convey("Then the affiliate disappears from the roster", func() {
				convey.So(rebuilt, convey.ShouldHaveLength, 1)
				convey.So(rebuilt[0].ID, convey.ShouldEqual, "A")
			})
		})

		convey.Convey("When the lead set is empty", func() {
			convey.So(BuildRoster(nil), convey.ShouldBeEmpty)
		})
	})
}

func TestBuildStats(t *testing.T) {
	convey.Convey("Given one affiliate's scoped leads", t, func() {
		leads := []lead.Lead{
			{Status: lead.StatusPending, Commission: 10},
			{Status: lead.StatusConfirmed, Commission: 50},
			{Status: lead.StatusConfirmed, Commission: 30},
			{Status: lead.StatusPaid, Commission: 100},
		}

		s := BuildStats(leads)

		convey.Convey("Then the funnel figures add up", func() {
			convey.So(s.ClientsCount, convey.ShouldEqual, 4)
			convey.So(s.ConfirmedSales, convey.ShouldEqual, 3)
			convey.So(s.ConversionRate, convey.ShouldEqual, 0.75)
		})

		convey.Convey("Then commissions bucket by funnel position", func() {
			// Pending commissions accrue on confirmed leads only; a pending
			// lead's commission is not yet earned.
			convey.So(s.PendingCommissions, convey.ShouldEqual, 80)
			convey.So(s.PaidCommissions, convey.ShouldEqual, 100)
		})

		convey.Convey("When there are no leads", func() {
			empty := BuildStats(nil)
			convey.So(empty.ClientsCount, convey.ShouldEqual, 0)
			convey.So(empty.ConversionRate, convey.ShouldEqual, 0)
		})
	})
}

func TestBuildOverview(t *testing.T) {
	convey.Convey("Given the full lead set", t, func() {
		leads := []lead.Lead{
			{AffiliateID: "A", Status: lead.StatusPaid, Commission: 100, CreatedAt: day(1)},
			{AffiliateID: "A", Status: lead.StatusPending, Commission: 20, CreatedAt: day(2)},
			{AffiliateID: "B", Status: lead.StatusConfirmed, Commission: 40, CreatedAt: day(3)},
		}

		o := BuildOverview(leads)

		convey.So(o.AffiliatesCount, convey.ShouldEqual, 2)
		convey.So(o.TotalClients, convey.ShouldEqual, 3)
		convey.So(o.ConfirmedOrPaid, convey.ShouldEqual, 2)
		convey.So(o.ConversionRate, convey.ShouldAlmostEqual, 2.0/3.0)
		convey.So(o.TotalCommissions, convey.ShouldEqual, 160)
	})
}
