package datasource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/KaramelBytes/tabula-cli/internal/apperrors"
)

func TestFetchAll_JoinsInOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	slow := func(ctx context.Context) (int, error) {
		time.Sleep(20 * time.Millisecond)
		return 1, nil
	}
	fast := func(ctx context.Context) (int, error) { return 2, nil }

	got, err := FetchAll(context.Background(), time.Second, slow, fast)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got)
}

func TestFetchAll_AnyErrorFailsWhole(t *testing.T) {
	defer goleak.VerifyNone(t)

	ok := func(ctx context.Context) (string, error) { return "fine", nil }
	bad := func(ctx context.Context) (string, error) { return "", errors.New("boom") }

	got, err := FetchAll(context.Background(), time.Second, ok, bad)
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, apperrors.ErrUpstreamUnavailable))
	assert.Contains(t, err.Error(), "boom")
}

func TestFetchAll_Timeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	block := func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	start := time.Now()
	_, err := FetchAll(context.Background(), 30*time.Millisecond, block, block)
	assert.True(t, errors.Is(err, apperrors.ErrUpstreamUnavailable))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), time.Second)
}

func worldBankHandler(t *testing.T, hits *atomic.Int32) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(r.URL.Path, "SP.POP.TOTL"):
			fmt.Fprint(w, `[{"page":1},[
				{"date":"2023","value":8045311447},
				{"date":"2022","value":7975105156},
				{"date":"2021","value":null}
			]]`)
		case strings.Contains(r.URL.Path, "SP.POP.GROW"):
			fmt.Fprint(w, `[{"page":1},[
				{"date":"2023","value":0.8812},
				{"date":"2022","value":0.8312},
				{"date":"2021","value":0.87}
			]]`)
		default:
			http.NotFound(w, r)
		}
	}
}

func TestPopulation_LiveJoinByYear(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(worldBankHandler(t, &hits))
	defer srv.Close()

	p := NewPopulation("", time.Second, zap.NewNop())
	p.BaseURL = srv.URL
	out := p.Load(context.Background())

	require.True(t, out.Live)
	assert.Empty(t, out.Note)
	ds := out.Dataset
	assert.Equal(t, []string{ColYear, ColPopulation, ColGrowth}, ds.Columns)
	require.Equal(t, 2, ds.RowCount(), "2021 has no total and is dropped")
	assert.Equal(t, "2022", ds.Rows[0].Get(ColYear).String())
	assert.Equal(t, "0.88", ds.Rows[1].Get(ColGrowth).String())
	assert.Equal(t, "worldbank:WLD", ds.Source)
	assert.Equal(t, int32(2), hits.Load())
}

func TestPopulation_FallbackIsCachedWithoutRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	core, logs := observer.New(zap.WarnLevel)
	p := NewPopulation("FRA", time.Second, zap.New(core))
	p.BaseURL = srv.URL

	first := p.Load(context.Background())
	assert.False(t, first.Live)
	assert.Equal(t, StaleNote, first.Note)
	assert.Equal(t, len(staticPopulationRows), first.Dataset.RowCount())

	second := p.Load(context.Background())
	assert.Same(t, first.Dataset, second.Dataset)
	assert.LessOrEqual(t, hits.Load(), int32(2), "no retries after the first failure")
	assert.Equal(t, 1, logs.FilterMessage("population fetch failed; serving static figures").Len())
}

func TestPopulation_TimeoutFallsBack(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	tr := &http.Transport{}
	defer func() {
		close(release)
		srv.Close()
		tr.CloseIdleConnections()
	}()

	p := NewPopulation("WLD", 50*time.Millisecond, nil)
	p.BaseURL = srv.URL
	p.Client = &http.Client{Transport: tr}

	start := time.Now()
	out := p.Load(context.Background())
	assert.False(t, out.Live)
	assert.Equal(t, StaleNote, out.Note)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestPopulation_MalformedResponseFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"message":[{"id":"120","value":"Invalid value"}]}]`)
	}))
	defer srv.Close()

	p := NewPopulation("XXX", time.Second, nil)
	p.BaseURL = srv.URL
	out := p.Load(context.Background())
	assert.False(t, out.Live)
	assert.Equal(t, "static:population", out.Dataset.Source)
}

func TestStocks(t *testing.T) {
	out := Stocks()
	assert.False(t, out.Live)
	assert.Equal(t, []string{"Symbol", "Company", "Price", "Change", "Change %"}, out.Dataset.Columns)
	assert.Equal(t, "AAPL", out.Dataset.Rows[0].Get("Symbol").String())
}
