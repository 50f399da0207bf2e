package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBusFallsBackToLocal(t *testing.T) {
	_, ok := NewBus("", nil).(*LocalBus)
	assert.True(t, ok, "empty url")

	_, ok = NewBus("not a redis url", nil).(*LocalBus)
	assert.True(t, ok, "unparseable url")
}

func TestLocalBusDeliversBacklogAndLiveMessages(t *testing.T) {
	b := NewLocalBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, b.PublishDocument(ctx, DocumentMessage{ClaimID: "1", FileName: "before.pdf"}))

	var mu sync.Mutex
	var got []string
	done := make(chan error, 1)
	go func() {
		done <- b.ReadDocumentsStream(ctx, "processor", "c1", func(_ context.Context, m DocumentMessage) error {
			mu.Lock()
			got = append(got, m.FileName)
			mu.Unlock()
			return nil
		})
	}()

	require.NoError(t, b.PublishDocument(ctx, DocumentMessage{ClaimID: "1", FileName: "after.pdf"}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"before.pdf", "after.pdf"}, got)
	mu.Unlock()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("reader did not stop")
	}
}

func TestLocalBusGroupsAreIndependent(t *testing.T) {
	b := NewLocalBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	total := 185000.0
	require.NoError(t, b.PublishStatus(ctx, StatusMessage{ClaimID: "3", Status: "ready", TotalBilled: &total}))

	seen := make(chan string, 4)
	for _, group := range []string{"ui", "api"} {
		group := group
		go func() {
			_ = b.ReadStatusStream(ctx, group, "c", func(_ context.Context, m StatusMessage) error {
				seen <- group + ":" + m.ClaimID
				return nil
			})
		}()
	}

	var results []string
	for i := 0; i < 2; i++ {
		select {
		case s := <-seen:
			results = append(results, s)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for status delivery")
		}
	}
	assert.ElementsMatch(t, []string{"ui:3", "api:3"}, results)

	stats, err := b.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "local", stats["type"])
	assert.Equal(t, 2, stats["status_consumer_groups"])
}

func TestLocalBusResetDropsBacklog(t *testing.T) {
	b := NewLocalBus(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	require.NoError(t, b.PublishDocument(ctx, DocumentMessage{ClaimID: "1", FileName: "stale.pdf"}))
	require.NoError(t, b.Reset(ctx))

	var got int
	err := b.ReadDocumentsStream(ctx, "g", "c", func(context.Context, DocumentMessage) error {
		got++
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, got)
}

func TestLocalStreamTrimsToMaxLen(t *testing.T) {
	s := newLocalStream[int]()
	for i := 0; i < localMaxLen+5; i++ {
		s.publish(i)
	}
	batch, wait := s.next("late")
	assert.Nil(t, wait)
	require.Len(t, batch, localMaxLen)
	assert.Equal(t, 5, batch[0])
}

func TestDecodeStreamFields(t *testing.T) {
	doc := decodeDocument(map[string]string{
		"claim_id":  "2",
		"file_name": "bills.xlsx",
		"kind":      "xlsx",
		"size":      "4096",
		"timestamp": "1700000000000",
	})
	assert.Equal(t, "2", doc.ClaimID)
	assert.Equal(t, int64(4096), doc.Size)
	assert.Equal(t, int64(1700000000), doc.Timestamp)

	st := decodeStatus(map[string]string{"claim_id": "3", "status": "ready", "total_billed": "185000"})
	require.NotNil(t, st.TotalBilled)
	assert.Equal(t, 185000.0, *st.TotalBilled)

	st = decodeStatus(map[string]string{"claim_id": "3", "status": "error"})
	assert.Nil(t, st.TotalBilled)
}

func TestParseTimestamp(t *testing.T) {
	ts, err := parseTimestamp("2025-01-20T14:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 20, 14, 30, 0, 0, time.UTC).Unix(), ts)

	_, err = parseTimestamp("yesterday")
	assert.Error(t, err)
}
