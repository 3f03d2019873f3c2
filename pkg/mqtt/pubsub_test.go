package mqtt

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func newToken(completed bool, err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	if completed {
		close(t.done)
	}

	return t
}

func (t *fakeToken) Wait() bool {
	<-t.done

	return true
}

func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *fakeToken) Done() <-chan struct{} { return t.done }

func (t *fakeToken) Error() error { return t.err }

func TestNewPubSubRequiresID(t *testing.T) {
	t.Parallel()

	_, err := NewPubSub(Config{Address: "tcp://localhost:1883"}, slog.New(slog.DiscardHandler))
	assert.ErrorIs(t, err, errEmptyID)
}

func TestWait(t *testing.T) {
	t.Parallel()

	errBroker := errors.New("broker refused")
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	cases := []struct {
		desc  string
		ctx   context.Context
		token *fakeToken
		err   error
	}{
		{desc: "completed", ctx: context.Background(), token: newToken(true, nil)},
		{desc: "completed with error", ctx: context.Background(), token: newToken(true, errBroker), err: errBroker},
		{desc: "timeout", ctx: context.Background(), token: newToken(false, nil), err: errPublishTimeout},
		{desc: "context cancelled", ctx: cancelled, token: newToken(false, nil), err: context.Canceled},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			ps := &pubsub{timeout: 20 * time.Millisecond}
			err := ps.wait(tc.ctx, tc.token, errPublishTimeout)
			if tc.err == nil {
				assert.NoError(t, err)

				return
			}
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestEmptyTopic(t *testing.T) {
	t.Parallel()

	ps := &pubsub{timeout: time.Second}
	ctx := context.Background()

	assert.ErrorIs(t, ps.Publish(ctx, "", map[string]any{}), errEmptyTopic)
	assert.ErrorIs(t, ps.Subscribe(ctx, "", nil), errEmptyTopic)
	assert.ErrorIs(t, ps.Unsubscribe(ctx, ""), errEmptyTopic)
}
