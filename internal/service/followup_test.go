package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/set-night/leadbot/internal/domain"
)

// recordingNotifier collects every notification it is asked to send.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
	err  error
}

func (r *recordingNotifier) Notify(_ context.Context, n domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return r.err
}

func (r *recordingNotifier) all() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Notification(nil), r.sent...)
}

func (r *recordingNotifier) count(ch domain.Channel) int {
	n := 0
	for _, s := range r.all() {
		if s.Channel == ch {
			n++
		}
	}
	return n
}

var testTexts = map[domain.FollowupKind]string{
	domain.FollowupNudge:          "nudge",
	domain.FollowupPersuade:       "persuade",
	domain.FollowupContactRequest: "contact",
}

func newTestScheduler(n domain.Notifier) *FollowupScheduler {
	return NewFollowupScheduler(n, testTexts, time.Second)
}

func TestFollowup_FiresOnce(t *testing.T) {
	rec := &recordingNotifier{}
	s := newTestScheduler(rec)

	s.Arm(1, domain.FollowupNudge, 10*time.Millisecond)
	require.True(t, s.Armed(1, domain.FollowupNudge))

	require.Eventually(t, func() bool { return len(rec.all()) == 1 }, time.Second, 5*time.Millisecond)
	sent := rec.all()[0]
	require.Equal(t, domain.ChannelUser, sent.Channel)
	require.Equal(t, domain.ConversationID(1), sent.ConversationID)
	require.Equal(t, "nudge", sent.Text)
	require.False(t, s.Armed(1, domain.FollowupNudge))

	require.Never(t, func() bool { return len(rec.all()) > 1 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestFollowup_RearmReplacesPrevious(t *testing.T) {
	rec := &recordingNotifier{}
	s := newTestScheduler(rec)

	s.Arm(1, domain.FollowupNudge, 20*time.Millisecond)
	s.Arm(1, domain.FollowupNudge, 30*time.Millisecond)
	require.Equal(t, []domain.FollowupKind{domain.FollowupNudge}, s.Pending(1))

	require.Eventually(t, func() bool { return len(rec.all()) == 1 }, time.Second, 5*time.Millisecond)
	require.Never(t, func() bool { return len(rec.all()) > 1 }, 80*time.Millisecond, 5*time.Millisecond)
}

func TestFollowup_CancelSuppressesFire(t *testing.T) {
	rec := &recordingNotifier{}
	s := newTestScheduler(rec)

	s.Arm(1, domain.FollowupPersuade, 20*time.Millisecond)
	require.True(t, s.Cancel(1, domain.FollowupPersuade))
	require.False(t, s.Armed(1, domain.FollowupPersuade))

	require.Never(t, func() bool { return len(rec.all()) > 0 }, 60*time.Millisecond, 5*time.Millisecond)
}

func TestFollowup_CancelNeverArmedIsNoop(t *testing.T) {
	s := newTestScheduler(&recordingNotifier{})

	require.NotPanics(t, func() {
		require.False(t, s.Cancel(42, domain.FollowupContactRequest))
	})
	require.Zero(t, s.CancelAll(42))
}

func TestFollowup_CancelAfterFireIsNoop(t *testing.T) {
	rec := &recordingNotifier{}
	s := newTestScheduler(rec)

	s.Arm(1, domain.FollowupNudge, time.Millisecond)
	require.Eventually(t, func() bool { return len(rec.all()) == 1 }, time.Second, 5*time.Millisecond)

	require.False(t, s.Cancel(1, domain.FollowupNudge))
	require.Len(t, rec.all(), 1)
}

func TestFollowup_CancelAllOnlyTouchesOneConversation(t *testing.T) {
	rec := &recordingNotifier{}
	s := newTestScheduler(rec)

	for _, k := range []domain.FollowupKind{domain.FollowupNudge, domain.FollowupPersuade, domain.FollowupContactRequest} {
		s.Arm(1, k, time.Hour)
	}
	s.Arm(2, domain.FollowupNudge, time.Hour)

	require.Equal(t, 3, s.CancelAll(1))
	require.Empty(t, s.Pending(1))
	require.Equal(t, []domain.FollowupKind{domain.FollowupNudge}, s.Pending(2))
	s.Shutdown()
	require.Empty(t, s.Pending(2))
}

func TestFollowup_ShutdownRefusesNewTimers(t *testing.T) {
	rec := &recordingNotifier{}
	s := newTestScheduler(rec)
	s.Shutdown()

	s.Arm(1, domain.FollowupNudge, time.Millisecond)
	require.False(t, s.Armed(1, domain.FollowupNudge))
	require.Never(t, func() bool { return len(rec.all()) > 0 }, 30*time.Millisecond, 5*time.Millisecond)
}

func TestFollowup_DeliveryErrorIsSwallowed(t *testing.T) {
	rec := &recordingNotifier{err: errors.New("telegram down")}
	s := newTestScheduler(rec)

	s.Arm(1, domain.FollowupContactRequest, time.Millisecond)
	require.Eventually(t, func() bool { return len(rec.all()) == 1 }, time.Second, 5*time.Millisecond)
	require.False(t, s.Armed(1, domain.FollowupContactRequest))
}

func TestFollowup_ConcurrentArmAndCancel(t *testing.T) {
	rec := &recordingNotifier{}
	s := newTestScheduler(rec)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Arm(1, domain.FollowupNudge, time.Millisecond)
		}()
		go func() {
			defer wg.Done()
			s.Cancel(1, domain.FollowupNudge)
		}()
	}
	wg.Wait()
	s.Cancel(1, domain.FollowupNudge)

	time.Sleep(20 * time.Millisecond)
	require.LessOrEqual(t, len(rec.all()), 50)
	require.Empty(t, s.Pending(1))
}
