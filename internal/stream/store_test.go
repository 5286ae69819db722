package stream_test

import (
	"context"
	"testing"
	"time"

	"referral-service/internal/domain/lead"
	xerrors "referral-service/internal/pkg/errors"
	"referral-service/internal/repository/memory"
	"referral-service/internal/stream"

	"github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"
)

// waitFor polls until the condition holds or the deadline passes.
func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

// recv reads one snapshot with a timeout so a broken feed fails the test
// instead of hanging it.
func recv(ch <-chan []lead.Lead) ([]lead.Lead, bool) {
	select {
	case snap, ok := <-ch:
		return snap, ok
	case <-time.After(2 * time.Second):
		return nil, false
	}
}

func seedLead(id, affiliateID string, status lead.Status) lead.Lead {
	return lead.Lead{
		ID:          id,
		AffiliateID: affiliateID,
		Status:      status,
		CreatedAt:   time.Now().UTC(),
		AddedBy:     lead.OriginAffiliate,
	}
}

func draft(affiliateID string) lead.Draft {
	return lead.Draft{
		FirstName:   "Jean",
		LastName:    "Dupont",
		Email:       "jean@example.com",
		Phone:       "+33612345678",
		ProjectType: "E-commerce",
		AffiliateID: affiliateID,
		AddedBy:     lead.OriginAffiliate,
	}
}

func TestStoreSnapshots(t *testing.T) {
	convey.Convey("Given a store running against an in-memory source", t, func() {
		seeds := []lead.Lead{
			seedLead("a1", "A", lead.StatusPending),
			seedLead("a2", "A", lead.StatusConfirmed),
			seedLead("a3", "A", lead.StatusPending),
			seedLead("a4", "A", lead.StatusPaid),
			seedLead("a5", "A", lead.StatusPending),
			seedLead("b1", "B", lead.StatusPending),
			seedLead("b2", "B", lead.StatusConfirmed),
			seedLead("b3", "B", lead.StatusPending),
		}
		source := memory.NewLeadSource(seeds...)
		store := stream.NewStore(source, zap.NewNop())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go store.Run(ctx)

		convey.So(waitFor(func() bool {
			return len(store.Snapshot(stream.ScopeAll())) == len(seeds)
		}), convey.ShouldBeTrue)

		convey.Convey("Then scoped snapshots only contain matching leads", func() {
			convey.So(store.Snapshot(stream.ScopeAffiliate("A")), convey.ShouldHaveLength, 5)
			convey.So(store.Snapshot(stream.ScopeAffiliate("B")), convey.ShouldHaveLength, 3)
			convey.So(store.Snapshot(stream.ScopeAffiliate("C")), convey.ShouldBeEmpty)
		})

		convey.Convey("When a scoped consumer subscribes", func() {
			ch, stop := store.Subscribe(stream.ScopeAffiliate("B"))
			defer stop()

			convey.Convey("Then it gets the current scoped state immediately", func() {
				snap, ok := recv(ch)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(snap, convey.ShouldHaveLength, 3)
				for _, l := range snap {
					convey.So(l.AffiliateID, convey.ShouldEqual, "B")
				}
			})

			convey.Convey("And a change re-emits the full scoped set, not a delta", func() {
				recv(ch) // initial

				_, err := store.Create(ctx, draft("B"))
				convey.So(err, convey.ShouldBeNil)

				snap, ok := recv(ch)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(snap, convey.ShouldHaveLength, 4)
			})

			convey.Convey("And a change outside the scope still emits a consistent set", func() {
				recv(ch) // initial

				_, err := store.Create(ctx, draft("A"))
				convey.So(err, convey.ShouldBeNil)

				snap, ok := recv(ch)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(snap, convey.ShouldHaveLength, 3)
			})
		})

		convey.Convey("When a consumer unsubscribes", func() {
			ch, stop := store.Subscribe(stream.ScopeAll())
			recv(ch)
			stop()

			convey.Convey("Then its channel closes and no further state arrives", func() {
				_, ok := recv(ch)
				convey.So(ok, convey.ShouldBeFalse)
			})

			convey.Convey("And stopping twice is harmless", func() {
				stop()
			})
		})

		convey.Convey("When a slow consumer never drains", func() {
			ch, stop := store.Subscribe(stream.ScopeAll())
			defer stop()

			// Several mutations back to back; the consumer reads nothing.
			for i := 0; i < 4; i++ {
				_, err := store.Create(ctx, draft("A"))
				convey.So(err, convey.ShouldBeNil)
			}

			convey.So(waitFor(func() bool {
				return len(store.Snapshot(stream.ScopeAll())) == len(seeds)+4
			}), convey.ShouldBeTrue)

			convey.Convey("Then it only ever sees the latest full state", func() {
				snap, ok := recv(ch)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(snap, convey.ShouldHaveLength, len(seeds)+4)
			})
		})
	})
}

func TestStoreNormalizesAtIngestion(t *testing.T) {
	convey.Convey("Given a source emitting a malformed legacy record", t, func() {
		source := memory.NewLeadSource()
		store := stream.NewStore(source, zap.NewNop())
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go store.Run(ctx)

		source.Seed(lead.Lead{ID: "legacy", AffiliateID: "A", EstimatedAmount: -50, Status: "weird"})

		convey.So(waitFor(func() bool {
			return len(store.Snapshot(stream.ScopeAll())) == 1
		}), convey.ShouldBeTrue)

		convey.Convey("Then consumers only ever see defaulted fields", func() {
			l, err := store.Find("legacy")
			convey.So(err, convey.ShouldBeNil)
			convey.So(l.Status, convey.ShouldEqual, lead.StatusPending)
			convey.So(l.EstimatedAmount, convey.ShouldEqual, 0)
			convey.So(l.CreatedAt.IsZero(), convey.ShouldBeFalse)
		})
	})
}

func TestStoreDegradedMode(t *testing.T) {
	convey.Convey("Given a store whose live feed drops", t, func() {
		seeds := []lead.Lead{seedLead("a1", "A", lead.StatusPending)}
		source := memory.NewLeadSource(seeds...)
		store := stream.NewStore(source, zap.NewNop())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		done := make(chan error, 1)
		go func() { done <- store.Run(ctx) }()

		convey.So(waitFor(func() bool {
			return len(store.Snapshot(stream.ScopeAll())) == 1
		}), convey.ShouldBeTrue)

		ch, stop := store.Subscribe(stream.ScopeAll())
		defer stop()
		recv(ch)

		source.DropFeed()

		convey.Convey("Then the store flips to degraded", func() {
			convey.So(waitFor(store.Degraded), convey.ShouldBeTrue)

			convey.Convey("And the last known snapshot keeps serving reads", func() {
				convey.So(store.Snapshot(stream.ScopeAll()), convey.ShouldHaveLength, 1)
				_, err := store.Find("a1")
				convey.So(err, convey.ShouldBeNil)
			})

			convey.Convey("And subscriber feeds terminate", func() {
				_, ok := recv(ch)
				convey.So(ok, convey.ShouldBeFalse)
			})

			convey.Convey("And Run reports the degradation once cancelled", func() {
				cancel()
				select {
				case err := <-done:
					convey.So(err, convey.ShouldEqual, xerrors.ErrSyncDegraded)
				case <-time.After(2 * time.Second):
					convey.So("Run did not return", convey.ShouldBeEmpty)
				}
			})
		})
	})
}

func TestStoreFind(t *testing.T) {
	convey.Convey("Given a populated store", t, func() {
		source := memory.NewLeadSource(seedLead("x1", "A", lead.StatusPending))
		store := stream.NewStore(source, zap.NewNop())
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go store.Run(ctx)

		convey.So(waitFor(func() bool {
			return len(store.Snapshot(stream.ScopeAll())) == 1
		}), convey.ShouldBeTrue)

		convey.Convey("Then known ids resolve", func() {
			l, err := store.Find("x1")
			convey.So(err, convey.ShouldBeNil)
			convey.So(l.ID, convey.ShouldEqual, "x1")
		})

		convey.Convey("Then unknown ids return ErrNotFound", func() {
			_, err := store.Find("missing")
			convey.So(err, convey.ShouldEqual, xerrors.ErrNotFound)
		})
	})
}

func TestStoreCreateValidates(t *testing.T) {
	convey.Convey("Given a running store", t, func() {
		source := memory.NewLeadSource()
		store := stream.NewStore(source, zap.NewNop())
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go store.Run(ctx)

		convey.Convey("When the draft is invalid nothing is written", func() {
			d := draft("A")
			d.Email = ""
			_, err := store.Create(ctx, d)
			convey.So(xerrors.IsValidation(err), convey.ShouldBeTrue)
			convey.So(store.Snapshot(stream.ScopeAll()), convey.ShouldBeEmpty)
		})

		convey.Convey("When the draft is valid the new lead starts at the defaults", func() {
			id, err := store.Create(ctx, draft("A"))
			convey.So(err, convey.ShouldBeNil)
			convey.So(id, convey.ShouldNotBeEmpty)

			convey.So(waitFor(func() bool {
				_, err := store.Find(id)
				return err == nil
			}), convey.ShouldBeTrue)

			l, err := store.Find(id)
			convey.So(err, convey.ShouldBeNil)
			convey.So(l.Status, convey.ShouldEqual, lead.StatusPending)
			convey.So(l.EstimatedAmount, convey.ShouldEqual, 0)
			convey.So(l.Commission, convey.ShouldEqual, 0)
			convey.So(l.AddedBy, convey.ShouldEqual, lead.OriginAffiliate)
		})
	})
}
