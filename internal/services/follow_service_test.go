package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/microsocial/backend/internal/models"
	"github.com/anonto42/microsocial/backend/internal/repositories"
	"github.com/anonto42/microsocial/backend/internal/testutil"
	"gorm.io/gorm"
)

type recordingSink struct {
	mu   sync.Mutex
	sent []NotificationInput
	err  error
}

func (s *recordingSink) Create(_ context.Context, in NotificationInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, in)
	return s.err
}

func (s *recordingSink) ofType(typ string) []NotificationInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []NotificationInput
	for _, n := range s.sent {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

type fixture struct {
	db      *gorm.DB
	svc     *FollowService
	users   repositories.UserRepository
	follows repositories.FollowRepository
	sink    *recordingSink
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{
		db:      db,
		users:   repositories.NewPostgresUserRepository(db),
		follows: repositories.NewPostgresFollowRepository(db),
		sink:    &recordingSink{},
	}
	f.svc = NewFollowService(f.users, f.follows, f.sink)
	var mu sync.Mutex
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}
	return f
}

func (f *fixture) edgeCount(t *testing.T, followerID, followedID uint) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&n).Error; err != nil {
		t.Fatalf("count edges: %v", err)
	}
	return n
}

func (f *fixture) setPrivate(t *testing.T, user *models.User, private bool) {
	t.Helper()
	user.IsPrivate = private
	if err := f.users.UpdateUser(context.Background(), user); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
}

func TestSendFollowRequestIsIdempotent(t *testing.T) {
	for _, private := range []bool{false, true} {
		f := newFixture(t)
		ctx := context.Background()
		a := testutil.CreateUser(t, f.db, "alice", false)
		b := testutil.CreateUser(t, f.db, "bob", private)

		first, err := f.svc.SendFollowRequest(ctx, a.ID, b.ID)
		if err != nil {
			t.Fatalf("private=%v: first request: %v", private, err)
		}
		second, err := f.svc.SendFollowRequest(ctx, a.ID, b.ID)
		if err != nil {
			t.Fatalf("private=%v: second request: %v", private, err)
		}

		if n := f.edgeCount(t, a.ID, b.ID); n != 1 {
			t.Errorf("private=%v: %d edges, want 1", private, n)
		}
		if second.ID != first.ID || second.Status != first.Status || !second.RequestDate.Equal(first.RequestDate) {
			t.Errorf("private=%v: second request changed the edge: %+v -> %+v", private, first, second)
		}
		if len(f.sink.sent) != 1 {
			t.Errorf("private=%v: %d notifications, want 1", private, len(f.sink.sent))
		}
	}
}

func TestSendFollowRequestPublicTarget(t *testing.T) {
	f := newFixture(t)
	a := testutil.CreateUser(t, f.db, "alice", false)
	b := testutil.CreateUser(t, f.db, "bob", false)

	edge, err := f.svc.SendFollowRequest(context.Background(), a.ID, b.ID)
	if err != nil {
		t.Fatalf("SendFollowRequest: %v", err)
	}
	if edge.Status != models.FollowAccepted {
		t.Fatalf("status = %s, want Accepted", edge.Status)
	}

	got := f.sink.ofType(models.NotificationNewFollower)
	if len(got) != 1 || len(f.sink.sent) != 1 {
		t.Fatalf("notifications = %+v, want exactly one new_follower", f.sink.sent)
	}
	if got[0].RecipientID != b.ID || got[0].RelatedUserID != a.ID {
		t.Errorf("notification = %+v, want recipient %d related %d", got[0], b.ID, a.ID)
	}
	if got[0].Body != "alice started following you" {
		t.Errorf("body = %q", got[0].Body)
	}
}

func TestSendFollowRequestPrivateTarget(t *testing.T) {
	f := newFixture(t)
	a := testutil.CreateUser(t, f.db, "alice", false)
	b := testutil.CreateUser(t, f.db, "bob", true)

	edge, err := f.svc.SendFollowRequest(context.Background(), a.ID, b.ID)
	if err != nil {
		t.Fatalf("SendFollowRequest: %v", err)
	}
	if edge.Status != models.FollowPending {
		t.Fatalf("status = %s, want Pending", edge.Status)
	}

	got := f.sink.ofType(models.NotificationFollowRequest)
	if len(got) != 1 || len(f.sink.sent) != 1 {
		t.Fatalf("notifications = %+v, want exactly one follow_request", f.sink.sent)
	}
	if got[0].RecipientID != b.ID || got[0].RelatedUserID != a.ID || got[0].Link != "/follow-requests" {
		t.Errorf("notification = %+v", got[0])
	}
}

func TestSendFollowRequestInvalidTargets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, f.db, "alice", false)

	tests := []struct {
		name     string
		follower uint
		target   uint
		want     error
	}{
		{"self", a.ID, a.ID, ErrInvalidTarget},
		{"empty target", a.ID, 0, ErrInvalidTarget},
		{"empty follower", 0, a.ID, ErrInvalidTarget},
		{"unknown target", a.ID, a.ID + 100, ErrUserNotFound},
		{"unknown follower", a.ID + 100, a.ID, ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SendFollowRequest(ctx, tt.follower, tt.target)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}

	var n int64
	f.db.Model(&models.Follow{}).Count(&n)
	if n != 0 || len(f.sink.sent) != 0 {
		t.Fatalf("invalid requests wrote %d edges and %d notifications", n, len(f.sink.sent))
	}
}

func TestDeletedAccountCannotFollow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, f.db, "alice", false)
	b := testutil.CreateUser(t, f.db, "bob", false)

	if err := f.users.DeleteUser(ctx, a.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := f.svc.SendFollowRequest(ctx, a.ID, b.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}

	count, err := f.svc.FollowerCount(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	followers, err := f.svc.ListFollowers(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 || len(followers) != 0 {
		t.Fatalf("count = %d, followers = %d; want 0, 0", count, len(followers))
	}
	if len(f.sink.sent) != 0 {
		t.Fatalf("deleted account notified: %+v", f.sink.sent)
	}
}

func TestRejectedRequestRevivesByCurrentPrivacy(t *testing.T) {
	tests := []struct {
		name        string
		nowPrivate  bool
		wantStatus  models.FollowStatus
		wantNotType string
	}{
		{"still private", true, models.FollowPending, models.NotificationFollowRequest},
		{"went public", false, models.FollowAccepted, models.NotificationNewFollower},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			a := testutil.CreateUser(t, f.db, "alice", false)
			b := testutil.CreateUser(t, f.db, "bob", true)

			req, err := f.svc.SendFollowRequest(ctx, a.ID, b.ID)
			if err != nil {
				t.Fatalf("SendFollowRequest: %v", err)
			}
			if err := f.svc.Reject(ctx, req.ID, b.ID); err != nil {
				t.Fatalf("Reject: %v", err)
			}
			f.setPrivate(t, b, tt.nowPrivate)
			f.sink.sent = nil

			revived, err := f.svc.SendFollowRequest(ctx, a.ID, b.ID)
			if err != nil {
				t.Fatalf("resend: %v", err)
			}
			if revived.ID != req.ID {
				t.Errorf("revived edge id = %d, want %d", revived.ID, req.ID)
			}
			if revived.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", revived.Status, tt.wantStatus)
			}
			if !revived.RequestDate.After(req.RequestDate) {
				t.Errorf("request date not refreshed: %v -> %v", req.RequestDate, revived.RequestDate)
			}
			if n := f.edgeCount(t, a.ID, b.ID); n != 1 {
				t.Errorf("%d edges, want 1", n)
			}
			if got := f.sink.ofType(tt.wantNotType); len(got) != 1 || len(f.sink.sent) != 1 {
				t.Errorf("notifications = %+v, want one %s", f.sink.sent, tt.wantNotType)
			}
		})
	}
}

func TestAcceptNotifiesFollower(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, f.db, "alice", false)
	b := testutil.CreateUser(t, f.db, "bob", true)

	req, err := f.svc.SendFollowRequest(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("SendFollowRequest: %v", err)
	}
	if err := f.svc.Accept(ctx, req.ID, b.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	ok, err := f.svc.IsAccepted(ctx, a.ID, b.ID)
	if err != nil || !ok {
		t.Fatalf("IsAccepted = %v, %v; want true", ok, err)
	}
	got := f.sink.ofType(models.NotificationFollowAccepted)
	if len(got) != 1 || got[0].RecipientID != a.ID || got[0].RelatedUserID != b.ID {
		t.Fatalf("follow_accepted notifications = %+v", got)
	}
}

func TestAcceptRequiresPendingRequestForTarget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, f.db, "alice", false)
	b := testutil.CreateUser(t, f.db, "bob", true)
	c := testutil.CreateUser(t, f.db, "carol", false)

	pending, err := f.svc.SendFollowRequest(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("SendFollowRequest: %v", err)
	}
	accepted, err := f.svc.SendFollowRequest(ctx, a.ID, c.ID)
	if err != nil {
		t.Fatalf("SendFollowRequest: %v", err)
	}
	f.sink.sent = nil

	tests := []struct {
		name      string
		requestID uint
		targetID  uint
	}{
		{"unknown id", pending.ID + 100, b.ID},
		{"someone else's request", pending.ID, c.ID},
		{"already accepted", accepted.ID, c.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := f.svc.Accept(ctx, tt.requestID, tt.targetID); !errors.Is(err, ErrFollowRequestNotFound) {
				t.Fatalf("Accept err = %v, want ErrFollowRequestNotFound", err)
			}
			if err := f.svc.Reject(ctx, tt.requestID, tt.targetID); !errors.Is(err, ErrFollowRequestNotFound) {
				t.Fatalf("Reject err = %v, want ErrFollowRequestNotFound", err)
			}
		})
	}

	edge, _ := f.follows.GetFollowByID(ctx, pending.ID)
	if edge.Status != models.FollowPending || !edge.RequestDate.Equal(pending.RequestDate) {
		t.Errorf("pending edge changed: %+v", edge)
	}
	edge, _ = f.follows.GetFollowByID(ctx, accepted.ID)
	if edge.Status != models.FollowAccepted {
		t.Errorf("accepted edge changed: %+v", edge)
	}
	if len(f.sink.sent) != 0 {
		t.Errorf("failed decisions sent notifications: %+v", f.sink.sent)
	}
}

func TestRejectIsSilent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, f.db, "alice", false)
	b := testutil.CreateUser(t, f.db, "bob", true)

	req, _ := f.svc.SendFollowRequest(ctx, a.ID, b.ID)
	f.sink.sent = nil
	if err := f.svc.Reject(ctx, req.ID, b.ID); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if len(f.sink.sent) != 0 {
		t.Fatalf("reject sent %+v", f.sink.sent)
	}
	status, _ := f.svc.FollowStatus(ctx, a.ID, b.ID)
	if status != string(models.FollowRejected) {
		t.Fatalf("FollowStatus = %s, want Rejected", status)
	}
	pending, _ := f.svc.ListPendingRequests(ctx, b.ID)
	if len(pending) != 0 {
		t.Fatalf("rejected request still pending: %+v", pending)
	}
}

func TestUnfollowOnlyRemovesAccepted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, f.db, "alice", false)
	b := testutil.CreateUser(t, f.db, "bob", true)
	c := testutil.CreateUser(t, f.db, "carol", false)

	// no edge at all
	if err := f.svc.Unfollow(ctx, a.ID, c.ID); err != nil {
		t.Fatalf("Unfollow(absent) = %v", err)
	}

	if _, err := f.svc.SendFollowRequest(ctx, a.ID, b.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.Unfollow(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("Unfollow(pending) = %v", err)
	}
	if n := f.edgeCount(t, a.ID, b.ID); n != 1 {
		t.Fatalf("unfollow removed a pending request")
	}

	if _, err := f.svc.SendFollowRequest(ctx, a.ID, c.ID); err != nil {
		t.Fatal(err)
	}
	f.sink.sent = nil
	if err := f.svc.Unfollow(ctx, a.ID, c.ID); err != nil {
		t.Fatalf("Unfollow(accepted) = %v", err)
	}
	if n := f.edgeCount(t, a.ID, c.ID); n != 0 {
		t.Fatalf("accepted edge not removed")
	}
	if len(f.sink.sent) != 0 {
		t.Fatalf("unfollow sent %+v", f.sink.sent)
	}

	if err := f.svc.Unfollow(ctx, a.ID, a.ID); err != nil {
		t.Fatalf("Unfollow(self) = %v", err)
	}
	if err := f.svc.Unfollow(ctx, a.ID, 0); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("Unfollow(0) = %v, want ErrInvalidTarget", err)
	}
}

func TestCancelRequestOnlyRemovesPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, f.db, "alice", false)
	b := testutil.CreateUser(t, f.db, "bob", true)
	c := testutil.CreateUser(t, f.db, "carol", false)

	if _, err := f.svc.SendFollowRequest(ctx, a.ID, c.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.CancelRequest(ctx, a.ID, c.ID); err != nil {
		t.Fatalf("CancelRequest(accepted) = %v", err)
	}
	if ok, _ := f.svc.IsAccepted(ctx, a.ID, c.ID); !ok {
		t.Fatal("cancel removed an accepted follow")
	}

	if _, err := f.svc.SendFollowRequest(ctx, a.ID, b.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.CancelRequest(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("CancelRequest(pending) = %v", err)
	}
	if status, _ := f.svc.FollowStatus(ctx, a.ID, b.ID); status != models.FollowStatusNone {
		t.Fatalf("FollowStatus after cancel = %s, want None", status)
	}
}

func TestFollowerCountMatchesAcceptedEdges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := testutil.CreateUser(t, f.db, "bob", true)
	var followers []*models.User
	for _, name := range []string{"a1", "a2", "a3", "a4", "a5"} {
		followers = append(followers, testutil.CreateUser(t, f.db, name, false))
	}

	requests := make(map[uint]uint)
	for _, u := range followers {
		req, err := f.svc.SendFollowRequest(ctx, u.ID, b.ID)
		if err != nil {
			t.Fatal(err)
		}
		requests[u.ID] = req.ID
	}
	steps := []func() error{
		func() error { return f.svc.Accept(ctx, requests[followers[0].ID], b.ID) },
		func() error { return f.svc.Accept(ctx, requests[followers[1].ID], b.ID) },
		func() error { return f.svc.Reject(ctx, requests[followers[2].ID], b.ID) },
		func() error { return f.svc.CancelRequest(ctx, followers[3].ID, b.ID) },
		func() error { return f.svc.Unfollow(ctx, followers[1].ID, b.ID) },
		func() error { _, err := f.svc.SendFollowRequest(ctx, followers[2].ID, b.ID); return err },
		func() error {
			f.setPrivate(t, b, false)
			_, err := f.svc.SendFollowRequest(ctx, followers[1].ID, b.ID)
			return err
		},
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}

		var want int64
		f.db.Model(&models.Follow{}).Where("followed_id = ? AND status = ?", b.ID, models.FollowAccepted).Count(&want)
		got, err := f.svc.FollowerCount(ctx, b.ID)
		if err != nil {
			t.Fatalf("FollowerCount: %v", err)
		}
		if got != want {
			t.Fatalf("step %d: FollowerCount = %d, accepted edges = %d", i, got, want)
		}
	}

	if got, _ := f.svc.FollowerCount(ctx, b.ID); got != 2 {
		t.Fatalf("final FollowerCount = %d, want 2", got)
	}
	if got, _ := f.svc.FollowingCount(ctx, followers[0].ID); got != 1 {
		t.Fatalf("FollowingCount = %d, want 1", got)
	}
}

func TestCanViewContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pub := testutil.CreateUser(t, f.db, "public", false)
	priv := testutil.CreateUser(t, f.db, "private", true)
	fan := testutil.CreateUser(t, f.db, "fan", false)
	stranger := testutil.CreateUser(t, f.db, "stranger", false)

	req, _ := f.svc.SendFollowRequest(ctx, fan.ID, priv.ID)
	if err := f.svc.Accept(ctx, req.ID, priv.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.SendFollowRequest(ctx, stranger.ID, priv.ID); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		viewer uint
		target uint
		want   bool
	}{
		{"self on private", priv.ID, priv.ID, true},
		{"anyone on public", stranger.ID, pub.ID, true},
		{"anonymous on public", 0, pub.ID, true},
		{"accepted follower on private", fan.ID, priv.ID, true},
		{"pending follower on private", stranger.ID, priv.ID, false},
		{"anonymous on private", 0, priv.ID, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.CanViewContent(ctx, tt.viewer, tt.target)
			if err != nil {
				t.Fatalf("CanViewContent: %v", err)
			}
			if got != tt.want {
				t.Fatalf("CanViewContent = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := f.svc.CanViewContent(ctx, fan.ID, priv.ID+100); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown target err = %v, want ErrUserNotFound", err)
	}
}

func TestListFollowersAndFollowing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, f.db, "alice", false)
	b := testutil.CreateUser(t, f.db, "bob", false)
	c := testutil.CreateUser(t, f.db, "carol", false)

	for _, u := range []*models.User{a, c} {
		if _, err := f.svc.SendFollowRequest(ctx, u.ID, b.ID); err != nil {
			t.Fatal(err)
		}
	}

	followers, err := f.svc.ListFollowers(ctx, b.ID)
	if err != nil {
		t.Fatalf("ListFollowers: %v", err)
	}
	if len(followers) != 2 || followers[0].ID != c.ID || followers[1].ID != a.ID {
		t.Fatalf("ListFollowers = %+v, want [carol alice]", followers)
	}

	following, err := f.svc.ListFollowing(ctx, a.ID)
	if err != nil || len(following) != 1 || following[0].ID != b.ID {
		t.Fatalf("ListFollowing = %+v, %v", following, err)
	}

	ids, err := f.svc.FollowingIDs(ctx, c.ID)
	if err != nil || len(ids) != 1 || ids[0] != b.ID {
		t.Fatalf("FollowingIDs = %v, %v", ids, err)
	}

	if _, err := f.svc.ListFollowers(ctx, b.ID+100); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("ListFollowers(unknown) err = %v", err)
	}
}

func TestNotificationFailureDoesNotFailTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sink.err = errors.New("notification store down")
	a := testutil.CreateUser(t, f.db, "alice", false)
	b := testutil.CreateUser(t, f.db, "bob", true)

	req, err := f.svc.SendFollowRequest(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("SendFollowRequest: %v", err)
	}
	if err := f.svc.Accept(ctx, req.ID, b.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if ok, _ := f.svc.IsAccepted(ctx, a.ID, b.ID); !ok {
		t.Fatal("edge not accepted")
	}
	if len(f.sink.sent) != 2 {
		t.Fatalf("notification attempts = %d, want 2", len(f.sink.sent))
	}
}

// racingFollows hides the existing edge from the first lookups so the
// service takes the create path and collides with the unique pair.
type racingFollows struct {
	repositories.FollowRepository
	mu     sync.Mutex
	blind  int
	always bool
}

func (r *racingFollows) GetFollowByPair(ctx context.Context, followerID, followedID uint) (*models.Follow, error) {
	r.mu.Lock()
	hide := r.always || r.blind > 0
	if r.blind > 0 {
		r.blind--
	}
	r.mu.Unlock()
	if hide {
		return nil, nil
	}
	return r.FollowRepository.GetFollowByPair(ctx, followerID, followedID)
}

func TestSendFollowRequestRetriesAfterLostCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, f.db, "alice", false)
	b := testutil.CreateUser(t, f.db, "bob", true)

	existing, err := f.svc.SendFollowRequest(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	f.sink.sent = nil

	racing := &racingFollows{FollowRepository: f.follows, blind: 1}
	svc := NewFollowService(f.users, racing, f.sink)

	edge, err := svc.SendFollowRequest(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("SendFollowRequest after collision: %v", err)
	}
	if edge.ID != existing.ID || edge.Status != models.FollowPending {
		t.Fatalf("edge = %+v, want existing pending edge %d", edge, existing.ID)
	}
	if n := f.edgeCount(t, a.ID, b.ID); n != 1 {
		t.Fatalf("%d edges, want 1", n)
	}
	if len(f.sink.sent) != 0 {
		t.Fatalf("lost create still notified: %+v", f.sink.sent)
	}
}

func TestSendFollowRequestGivesUpWithConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, f.db, "alice", false)
	b := testutil.CreateUser(t, f.db, "bob", false)

	if _, err := f.svc.SendFollowRequest(ctx, a.ID, b.ID); err != nil {
		t.Fatal(err)
	}

	svc := NewFollowService(f.users, &racingFollows{FollowRepository: f.follows, always: true}, f.sink)
	if _, err := svc.SendFollowRequest(ctx, a.ID, b.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestConcurrentFollowRequestsCreateOneEdge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, f.db, "alice", false)
	b := testutil.CreateUser(t, f.db, "bob", false)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.SendFollowRequest(ctx, a.ID, b.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("concurrent SendFollowRequest: %v", err)
		}
	}
	if n := f.edgeCount(t, a.ID, b.ID); n != 1 {
		t.Fatalf("%d edges, want 1", n)
	}
	if got := f.sink.ofType(models.NotificationNewFollower); len(got) != 1 {
		t.Fatalf("%d new_follower notifications, want 1", len(got))
	}
}
