package oracle

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubFetcher struct {
	quotes map[string]*Quote
	codes  map[string]int
	errs   map[string]error
	calls  []string
}

func (s *stubFetcher) GetPrice(ctx context.Context, token string) (*Quote, int, time.Duration, error) {
	s.calls = append(s.calls, token)
	if err := s.errs[token]; err != nil {
		return nil, 0, 0, err
	}
	code := s.codes[token]
	if code == 0 {
		code = http.StatusOK
	}
	return s.quotes[token], code, time.Second, nil
}

func TestRefresher_Refresh(t *testing.T) {
	fetcher := &stubFetcher{
		quotes: map[string]*Quote{"AAA": {Token: "AAA", Price: 1500}, "CCC": {Token: "CCC", Price: 700}},
		codes:  map[string]int{"DDD": http.StatusTooManyRequests},
		errs:   map[string]error{"BBB": errors.New("boom")},
	}
	cache := NewCache(0)
	r := NewRefresher(fetcher, cache, func() []string { return []string{"AAA", "BBB", "CCC", "DDD", "EEE"} }, zap.NewNop())

	r.Refresh(context.Background())

	price, ok := cache.Price("AAA")
	require.True(t, ok)
	assert.Equal(t, uint64(1500), price)

	_, ok = cache.Price("BBB")
	assert.False(t, ok, "failed fetch leaves no price")

	price, ok = cache.Price("CCC")
	require.True(t, ok)
	assert.Equal(t, uint64(700), price)

	assert.Equal(t, []string{"AAA", "BBB", "CCC", "DDD"}, fetcher.calls, "rate limit stops the batch")
}

func TestRefresher_StartRejectsBadSchedule(t *testing.T) {
	r := NewRefresher(&stubFetcher{}, NewCache(0), func() []string { return nil }, zap.NewNop())

	require.Error(t, r.Start(context.Background(), "not a schedule"))
	<-r.Stop().Done()
}

func TestCache_Expiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCache(time.Minute)
	c.now = func() time.Time { return now }

	c.Set("AAA", 10)
	price, ok := c.Price("AAA")
	require.True(t, ok)
	assert.Equal(t, uint64(10), price)

	now = now.Add(2 * time.Minute)
	_, ok = c.Price("AAA")
	assert.False(t, ok)

	c.Set("ZERO", 0)
	_, ok = c.Price("ZERO")
	assert.False(t, ok, "zero price is treated as unavailable")
}
