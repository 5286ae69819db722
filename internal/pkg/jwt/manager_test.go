package jwt

import (
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	convey.Convey("Given a manager with a valid config", t, func() {
		mgr, err := NewManager(Config{
			Secret:   "test-secret",
			Issuer:   "referral-service",
			Audience: "referral-users",
			TTL:      time.Hour,
		})
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When a token is generated and verified", func() {
			token, jti, err := mgr.Generate("id-1", "alice@example.com", "affiliate")
			convey.So(err, convey.ShouldBeNil)
			convey.So(token, convey.ShouldNotBeEmpty)
			convey.So(jti, convey.ShouldNotBeEmpty)

			claims, err := mgr.Verify(token)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the claims round-trip", func() {
				convey.So(claims.IdentityID, convey.ShouldEqual, "id-1")
				convey.So(claims.Email, convey.ShouldEqual, "alice@example.com")
				convey.So(claims.Role, convey.ShouldEqual, "affiliate")
				convey.So(claims.ID, convey.ShouldEqual, jti)
				convey.So(claims.IsAdmin(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the token was signed with a different secret", func() {
			other, _ := NewManager(Config{Secret: "other", Issuer: "referral-service", Audience: "referral-users"})
			token, _, err := other.Generate("id-1", "a@b.c", "affiliate")
			convey.So(err, convey.ShouldBeNil)

			_, err = mgr.Verify(token)
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When the issuer does not match", func() {
			other, _ := NewManager(Config{Secret: "test-secret", Issuer: "someone-else", Audience: "referral-users"})
			token, _, err := other.Generate("id-1", "a@b.c", "affiliate")
			convey.So(err, convey.ShouldBeNil)

			_, err = mgr.Verify(token)
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When the token has expired", func() {
			short, _ := NewManager(Config{
				Secret:   "test-secret",
				Issuer:   "referral-service",
				Audience: "referral-users",
				TTL:      time.Nanosecond,
			})
			token, _, err := short.Generate("id-1", "a@b.c", "affiliate")
			convey.So(err, convey.ShouldBeNil)
			time.Sleep(10 * time.Millisecond)

			_, err = mgr.Verify(token)
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When admin claims are issued", func() {
			token, _, err := mgr.Generate("id-2", "admin@example.com", "admin")
			convey.So(err, convey.ShouldBeNil)
			claims, err := mgr.Verify(token)
			convey.So(err, convey.ShouldBeNil)
			convey.So(claims.IsAdmin(), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given an empty secret", t, func() {
		_, err := NewManager(Config{})
		convey.So(err, convey.ShouldNotBeNil)
	})
}
