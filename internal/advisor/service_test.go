package advisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/ArnavJain-cy/sih-app/internal/account"
	"github.com/ArnavJain-cy/sih-app/internal/auth"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	calls [][]Message
	reply string
	err   error
}

func (f *fakeCompleter) Complete(_ context.Context, msgs []Message) (string, error) {
	f.calls = append(f.calls, append([]Message(nil), msgs...))
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAsk_BuildsPromptAndRecordsHistory(t *testing.T) {
	llm := &fakeCompleter{reply: "Try a bootcamp."}
	svc := NewService(llm, NewMemoryHistory(time.Minute, HistoryLimit(6)), 6, quietLog())
	id := auth.Identity{UserID: "u1"}
	ctx := context.Background()

	reply, err := svc.Ask(ctx, id, "Technology & Engineering", "  What next?  ")
	require.NoError(t, err)
	assert.Equal(t, "Try a bootcamp.", reply)

	require.Len(t, llm.calls, 1)
	first := llm.calls[0]
	require.Len(t, first, 2)
	assert.Equal(t, "system", first[0].Role)
	assert.Equal(t, "You are an expert career advisor. The user's quiz result shows they are suited for: Technology & Engineering. Provide helpful career guidance.", first[0].Content)
	assert.Equal(t, Message{Role: "user", Content: "What next?"}, first[1])

	_, err = svc.Ask(ctx, id, "Technology & Engineering", "And after that?")
	require.NoError(t, err)

	second := llm.calls[1]
	require.Len(t, second, 4)
	assert.Equal(t, "assistant", second[2].Role)
	assert.Equal(t, "Try a bootcamp.", second[2].Content)
}

func TestAsk_HistoryIsCappedAndPerCaller(t *testing.T) {
	llm := &fakeCompleter{reply: "ok"}
	svc := NewService(llm, NewMemoryHistory(time.Minute, HistoryLimit(2)), 2, quietLog())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Ask(ctx, auth.Identity{UserID: "u1"}, "", fmt.Sprintf("q%d", i))
		require.NoError(t, err)
	}

	last := llm.calls[len(llm.calls)-1]
	// system + 2 prior turns + current message
	require.Len(t, last, 6)
	assert.Equal(t, "q2", last[1].Content)

	_, err := svc.Ask(ctx, auth.Identity{UserID: "u2"}, "", "hello")
	require.NoError(t, err)
	assert.Len(t, llm.calls[len(llm.calls)-1], 2)
}

func TestAsk_Errors(t *testing.T) {
	ctx := context.Background()
	id := auth.Identity{UserID: "u1"}

	svc := NewService(&fakeCompleter{}, NewMemoryHistory(time.Minute, 4), 2, quietLog())
	_, err := svc.Ask(ctx, id, "x", "   ")
	assert.Equal(t, account.KindValidation, account.KindOf(err))

	svc = NewService(&fakeCompleter{err: ErrNotConfigured}, NewMemoryHistory(time.Minute, 4), 2, quietLog())
	_, err = svc.Ask(ctx, id, "x", "hi")
	assert.Equal(t, account.KindUnavailable, account.KindOf(err))
	assert.Equal(t, MsgNotConfigured, account.MessageOf(err, ""))

	hist := NewMemoryHistory(time.Minute, 4)
	svc = NewService(&fakeCompleter{err: errors.New("timeout")}, hist, 2, quietLog())
	_, err = svc.Ask(ctx, id, "x", "hi")
	assert.Equal(t, account.KindUnavailable, account.KindOf(err))

	msgs, _ := hist.Load(ctx, "u1")
	assert.Empty(t, msgs, "failed exchanges are not recorded")
}

func TestClearHistory(t *testing.T) {
	llm := &fakeCompleter{reply: "ok"}
	hist := NewMemoryHistory(time.Minute, 10)
	svc := NewService(llm, hist, 5, quietLog())
	ctx := context.Background()
	id := auth.Identity{UserID: "guest_1", IsGuest: true}

	_, err := svc.Ask(ctx, id, "", "hi")
	require.NoError(t, err)

	require.NoError(t, svc.ClearHistory(ctx, id))
	msgs, err := hist.Load(ctx, id.UserID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestWelcome(t *testing.T) {
	assert.Contains(t, Welcome("Creative & Design"), `quiz results showing "Creative & Design"`)
	assert.Contains(t, Welcome(""), defaultRecommendation)
}

func TestRedisHistory_Integration(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	ctx := context.Background()
	h := NewRedisHistory(client, time.Minute, 3)
	key := fmt.Sprintf("test-%d", time.Now().UnixNano())
	defer func() { _ = h.Clear(ctx, key) }()

	require.NoError(t, h.Append(ctx, key, Message{Role: "user", Content: "a"}, Message{Role: "assistant", Content: "b"}))
	require.NoError(t, h.Append(ctx, key, Message{Role: "user", Content: "c"}, Message{Role: "assistant", Content: "d"}))

	msgs, err := h.Load(ctx, key)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "b", msgs[0].Content)

	ttl, err := client.TTL(ctx, h.key(key)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, h.Clear(ctx, key))
	msgs, err = h.Load(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
