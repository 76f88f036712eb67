package rpc_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/USA-RedDragon/germ-rpctest/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNode answers every request with body and records the decoded request.
func fakeNode(t *testing.T, status int, body string) (*httptest.Server, func() map[string]any) {
	t.Helper()
	var mu sync.Mutex
	var last map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		req := map[string]any{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		last = req
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, func() map[string]any {
		mu.Lock()
		defer mu.Unlock()
		return last
	}
}

type recordedCall struct {
	action string
	err    error
}

type recorder struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (r *recorder) ObserveCall(action string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedCall{action: action, err: err})
}

func TestBlockCount(t *testing.T) {
	t.Parallel()
	srv, last := fakeNode(t, http.StatusOK, `{"count":"12","unchecked":"0"}`)
	client := rpc.NewClient(srv.URL)

	count, err := client.BlockCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rpc.Count(12), count.Count)
	assert.Equal(t, rpc.Count(0), count.Unchecked)
	assert.Equal(t, "block_count", last()["action"])
}

func TestNumbersAsJSONNumbers(t *testing.T) {
	t.Parallel()
	srv, _ := fakeNode(t, http.StatusOK, `{"count":3,"unchecked":1}`)
	count, err := rpc.NewClient(srv.URL).BlockCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rpc.Count(3), count.Count)
	assert.Equal(t, rpc.Count(1), count.Unchecked)
}

func TestNodeError(t *testing.T) {
	t.Parallel()
	srv, _ := fakeNode(t, http.StatusOK, `{"error":"Bad wallet number"}`)
	rec := &recorder{}
	client := rpc.NewClient(srv.URL, rpc.WithRecorder(rec))

	_, err := client.AccountList(context.Background(), "nope")
	var nodeErr *rpc.Error
	require.True(t, errors.As(err, &nodeErr))
	assert.Equal(t, "account_list", nodeErr.Action)
	assert.Equal(t, "Bad wallet number", nodeErr.Message)

	require.Len(t, rec.calls, 1)
	assert.Equal(t, "account_list", rec.calls[0].action)
	assert.Error(t, rec.calls[0].err)
}

func TestUnexpectedStatus(t *testing.T) {
	t.Parallel()
	srv, _ := fakeNode(t, http.StatusInternalServerError, `oops`)
	_, err := rpc.NewClient(srv.URL).WalletCreate(context.Background())
	assert.True(t, errors.Is(err, rpc.ErrUnexpectedStatus))
}

func TestInvalidResponse(t *testing.T) {
	t.Parallel()
	srv, _ := fakeNode(t, http.StatusOK, `[1,2,3]`)
	_, err := rpc.NewClient(srv.URL).FrontierCount(context.Background())
	assert.True(t, errors.Is(err, rpc.ErrInvalidResponse))
}

func TestEmptyCollections(t *testing.T) {
	t.Parallel()
	srv, _ := fakeNode(t, http.StatusOK, `{"accounts":"","blocks":"","balances":"","history":""}`)
	client := rpc.NewClient(srv.URL)
	ctx := context.Background()

	accounts, err := client.AccountList(ctx, "w")
	require.NoError(t, err)
	assert.Empty(t, accounts)

	blocks, err := client.Unchecked(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, blocks)

	balances, err := client.WalletBalances(ctx, "w")
	require.NoError(t, err)
	assert.Empty(t, balances)

	history, err := client.AccountHistory(ctx, "a", 1)
	require.NoError(t, err)
	assert.Empty(t, history.History)
}

func TestRequestParameters(t *testing.T) {
	t.Parallel()
	srv, last := fakeNode(t, http.StatusOK, `{"started":"1"}`)
	client := rpc.NewClient(srv.URL)
	ctx := context.Background()

	started, err := client.BlockConfirm(ctx, "ABC")
	require.NoError(t, err)
	assert.True(t, started)
	assert.Equal(t, map[string]any{"action": "block_confirm", "hash": "ABC"}, last())

	_, err = client.AccountsPending(ctx, []string{"xrb_a", "xrb_b"}, 5, true)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"action":   "accounts_pending",
		"accounts": []any{"xrb_a", "xrb_b"},
		"count":    "5",
		"source":   "true",
	}, last())

	_, err = client.Unchecked(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"action": "unchecked"}, last())
}

func TestBalances(t *testing.T) {
	t.Parallel()
	srv, _ := fakeNode(t, http.StatusOK, `{"balances":{"xrb_a":{"balance":"340282366920938463463374607431768211455","pending":"0"}}}`)
	balances, err := rpc.NewClient(srv.URL).WalletBalances(context.Background(), "w")
	require.NoError(t, err)
	require.Contains(t, balances, "xrb_a")
	balance := balances["xrb_a"]
	assert.Equal(t, "340282366920938463463374607431768211455", balance.Balance.String())
	assert.Equal(t, 0, balance.Pending.Sign())
}

func TestPendingShapes(t *testing.T) {
	t.Parallel()
	srv, _ := fakeNode(t, http.StatusOK, `{"blocks":{
		"xrb_a":["H1","H2"],
		"xrb_b":{"H3":{"amount":"10","source":"xrb_c"}},
		"xrb_c":{"H4":"7"},
		"xrb_d":""}}`)
	blocks, err := rpc.NewClient(srv.URL).AccountsPending(context.Background(), []string{"xrb_a"}, 10, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"H1", "H2"}, blocks["xrb_a"].Hashes())
	assert.Equal(t, "xrb_c", blocks["xrb_b"]["H3"].Source)
	h3 := blocks["xrb_b"]["H3"]
	assert.Equal(t, "10", h3.Amount.String())
	h4 := blocks["xrb_c"]["H4"]
	assert.Equal(t, "7", h4.Amount.String())
	assert.Empty(t, blocks["xrb_d"])
}

func TestRaw(t *testing.T) {
	t.Parallel()
	srv, _ := fakeNode(t, http.StatusOK, `{"wallet":"ABCD"}`)
	out, err := rpc.NewClient(srv.URL).Raw(context.Background(), "wallet_create", nil)
	require.NoError(t, err)
	assert.Equal(t, "ABCD", out["wallet"])
}

func TestTimeout(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	client := rpc.NewClient(srv.URL, rpc.WithTimeout(50*time.Millisecond))
	_, err := client.BlockCount(context.Background())
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestDefaultURL(t *testing.T) {
	t.Parallel()
	assert.Equal(t, rpc.DefaultURL, rpc.NewClient("").URL())
	assert.Equal(t, "http://localhost:55000", rpc.DefaultURL)
}

func TestAmount(t *testing.T) {
	t.Parallel()
	a, err := rpc.NewAmount("100")
	require.NoError(t, err)
	data, err := json.Marshal(&a)
	require.NoError(t, err)
	assert.JSONEq(t, `"100"`, string(data))

	_, err = rpc.NewAmount("abc")
	assert.Error(t, err)
}
