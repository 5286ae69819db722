package lead_test

import (
	"context"
	"testing"
	"time"

	leaddomain "referral-service/internal/domain/lead"
	xerrors "referral-service/internal/pkg/errors"
	"referral-service/internal/repository/memory"
	leadsvc "referral-service/internal/service/lead"
	"referral-service/internal/stream"

	"github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"
)

const editor = "admin-1"

func editFixture(t *testing.T) (*memory.LeadSource, *stream.Store, *leadsvc.EditSessions, string, func()) {
	t.Helper()
	seed := leaddomain.Lead{
		ID:              "l1",
		AffiliateID:     "A",
		Status:          leaddomain.StatusConfirmed,
		EstimatedAmount: 1000,
		Commission:      100,
		CreatedAt:       time.Now().UTC(),
		AddedBy:         leaddomain.OriginAffiliate,
	}
	source := memory.NewLeadSource(seed)
	store := stream.NewStore(source, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go store.Run(ctx)
	waitFor(func() bool {
		_, err := store.Find("l1")
		return err == nil
	})
	return source, store, leadsvc.NewEditSessions(store, zap.NewNop()), seed.ID, cancel
}

func TestEditSessionCommit(t *testing.T) {
	convey.Convey("Given an open edit session over a lead's amounts", t, func() {
		source, store, sessions, leadID, cancel := editFixture(t)
		defer cancel()

		sessions.Open(editor, leadID, 1000, 100)
		convey.So(sessions.HasOpen(editor), convey.ShouldBeTrue)

		convey.Convey("When both fields are staged and committed", func() {
			convey.So(sessions.SetFields(editor, "2500", "250"), convey.ShouldBeNil)
			convey.So(sessions.Commit(context.Background(), editor), convey.ShouldBeNil)

			convey.Convey("Then exactly one write carried both fields", func() {
				calls := source.UpdateCalls()
				convey.So(calls, convey.ShouldHaveLength, 1)
				convey.So(calls[0].LeadID, convey.ShouldEqual, leadID)
				convey.So(calls[0].Update.EstimatedAmount, convey.ShouldNotBeNil)
				convey.So(*calls[0].Update.EstimatedAmount, convey.ShouldEqual, 2500)
				convey.So(calls[0].Update.Commission, convey.ShouldNotBeNil)
				convey.So(*calls[0].Update.Commission, convey.ShouldEqual, 250)
				convey.So(calls[0].Update.Status, convey.ShouldBeNil)
			})

			convey.Convey("And the session is closed", func() {
				convey.So(sessions.HasOpen(editor), convey.ShouldBeFalse)
			})

			convey.Convey("And the change comes back through the feed", func() {
				convey.So(waitFor(func() bool {
					cur, err := store.Find(leadID)
					return err == nil && cur.EstimatedAmount == 2500 && cur.Commission == 250
				}), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a staged value is not a number", func() {
			convey.So(sessions.SetFields(editor, "abc", "250"), convey.ShouldBeNil)
			err := sessions.Commit(context.Background(), editor)

			convey.Convey("Then commit fails with a validation error", func() {
				convey.So(xerrors.IsValidation(err), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "estimated_amount")
			})

			convey.Convey("And nothing was written", func() {
				convey.So(source.UpdateCalls(), convey.ShouldBeEmpty)
			})

			convey.Convey("And the session stays open for correction", func() {
				convey.So(sessions.HasOpen(editor), convey.ShouldBeTrue)
				convey.So(sessions.SetFields(editor, "2500", "250"), convey.ShouldBeNil)
				convey.So(sessions.Commit(context.Background(), editor), convey.ShouldBeNil)
			})
		})

		convey.Convey("When a staged value is negative", func() {
			convey.So(sessions.SetFields(editor, "2500", "-1"), convey.ShouldBeNil)
			err := sessions.Commit(context.Background(), editor)
			convey.So(xerrors.IsValidation(err), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "commission")
			convey.So(source.UpdateCalls(), convey.ShouldBeEmpty)
		})

		convey.Convey("When committing without staging", func() {
			convey.Convey("Then the prefilled current values are written back", func() {
				convey.So(sessions.Commit(context.Background(), editor), convey.ShouldBeNil)
				calls := source.UpdateCalls()
				convey.So(calls, convey.ShouldHaveLength, 1)
				convey.So(*calls[0].Update.EstimatedAmount, convey.ShouldEqual, 1000)
				convey.So(*calls[0].Update.Commission, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When the session is discarded", func() {
			sessions.Discard(editor)
			convey.So(sessions.HasOpen(editor), convey.ShouldBeFalse)
			convey.So(sessions.Commit(context.Background(), editor), convey.ShouldEqual, xerrors.ErrNoSession)
			convey.So(source.UpdateCalls(), convey.ShouldBeEmpty)
		})

		convey.Convey("When the same consumer opens a second session", func() {
			convey.So(sessions.SetFields(editor, "9999", "999"), convey.ShouldBeNil)
			sessions.Open(editor, leadID, 1000, 100)

			convey.Convey("Then the first session's staged values are gone", func() {
				convey.So(sessions.Commit(context.Background(), editor), convey.ShouldBeNil)
				calls := source.UpdateCalls()
				convey.So(calls, convey.ShouldHaveLength, 1)
				convey.So(*calls[0].Update.EstimatedAmount, convey.ShouldEqual, 1000)
			})
		})
	})
}

// gatedSource stalls field updates until released, so a test can observe a
// commit while it is still in flight.
type gatedSource struct {
	*memory.LeadSource
	entered chan struct{}
	release chan struct{}
}

func (g *gatedSource) UpdateLeadFields(ctx context.Context, id string, update leaddomain.FieldUpdate) error {
	g.entered <- struct{}{}
	<-g.release
	return g.LeadSource.UpdateLeadFields(ctx, id, update)
}

func TestEditSessionCommitIsSingleFlight(t *testing.T) {
	convey.Convey("Given a commit stalled inside the write", t, func() {
		seed := leaddomain.Lead{
			ID:              "l1",
			AffiliateID:     "A",
			Status:          leaddomain.StatusConfirmed,
			EstimatedAmount: 1000,
			Commission:      100,
			CreatedAt:       time.Now().UTC(),
			AddedBy:         leaddomain.OriginAffiliate,
		}
		gated := &gatedSource{
			LeadSource: memory.NewLeadSource(seed),
			entered:    make(chan struct{}),
			release:    make(chan struct{}),
		}
		store := stream.NewStore(gated, zap.NewNop())
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go store.Run(ctx)

		sessions := leadsvc.NewEditSessions(store, zap.NewNop())
		sessions.Open(editor, seed.ID, 1000, 100)
		convey.So(sessions.SetFields(editor, "2500", "250"), convey.ShouldBeNil)

		first := make(chan error, 1)
		go func() { first <- sessions.Commit(context.Background(), editor) }()
		<-gated.entered

		convey.Reset(func() {
			select {
			case <-gated.release:
			default:
				close(gated.release)
			}
		})

		convey.Convey("When a second commit races it", func() {
			err := sessions.Commit(context.Background(), editor)

			convey.Convey("Then the racer is rejected as busy", func() {
				convey.So(err, convey.ShouldEqual, xerrors.ErrSessionBusy)
			})

			convey.Convey("And the first commit still lands one combined write", func() {
				close(gated.release)
				convey.So(<-first, convey.ShouldBeNil)

				calls := gated.UpdateCalls()
				convey.So(calls, convey.ShouldHaveLength, 1)
				convey.So(*calls[0].Update.EstimatedAmount, convey.ShouldEqual, 2500)
				convey.So(*calls[0].Update.Commission, convey.ShouldEqual, 250)
				convey.So(sessions.HasOpen(editor), convey.ShouldBeFalse)
			})
		})
	})
}

func TestEditSessionWithoutOpen(t *testing.T) {
	convey.Convey("Given no open session for the consumer", t, func() {
		_, _, sessions, _, cancel := editFixture(t)
		defer cancel()

		convey.So(sessions.SetFields(editor, "1", "1"), convey.ShouldEqual, xerrors.ErrNoSession)
		convey.So(sessions.Commit(context.Background(), editor), convey.ShouldEqual, xerrors.ErrNoSession)
		convey.So(sessions.HasOpen(editor), convey.ShouldBeFalse)
	})
}

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
