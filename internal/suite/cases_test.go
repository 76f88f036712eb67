package suite_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/USA-RedDragon/germ-rpctest/internal/config"
	"github.com/USA-RedDragon/germ-rpctest/internal/devnode"
	"github.com/USA-RedDragon/germ-rpctest/internal/keys"
	"github.com/USA-RedDragon/germ-rpctest/internal/rpc"
	"github.com/USA-RedDragon/germ-rpctest/internal/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	wallet      = "000D1BAEC8EC208142C99059B393051BAC8380F9B5A2E6B2489A277D81789F3F"
	destination = "xrb_1111111111111111111111111111111111111111111111111111hifc8npp"
	sendHash    = "0C6A8C73A2D27C1B0F51B8B07A5AC7B4A14D8C5C07A4C25F2B0E3F6A2D1C2E3F"
	receiveHash = "4D2B0CFE0B35F1C3E3F5E5A2C8A1B7D2E6F0A9C3B4D5E6F708192A3B4C5D6E7F"
)

// cannedNode answers every action from responses, or with "Unknown command".
func cannedNode(t *testing.T, responses map[string]string) *rpc.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Action string `json:"action"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		body, ok := responses[req.Action]
		if !ok {
			body = `{"error":"Unknown command"}`
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return rpc.NewClient(srv.URL)
}

func defaultOptions() suite.Options {
	return suite.Options{
		GenesisKey:     config.DefaultGenesisKey,
		GenesisAccount: config.DefaultGenesisAccount,
		Seed:           config.DefaultSeed,
		SendAmount:     config.DefaultSendAmount,
	}
}

func devNodeClient(t *testing.T) *rpc.Client {
	t.Helper()
	genesis, err := keys.ParsePrivateKey(config.DefaultGenesisKey)
	require.NoError(t, err)
	cfg := &config.Config{Log: config.Log{Level: config.LogLevelError}}
	srv := httptest.NewServer(devnode.NewRouter(cfg, devnode.New(genesis)))
	t.Cleanup(srv.Close)
	return rpc.NewClient(srv.URL)
}

func TestSuiteAgainstDevNode(t *testing.T) {
	t.Parallel()
	s, err := suite.New(devNodeClient(t), defaultOptions())
	require.NoError(t, err)

	var out bytes.Buffer
	summary, err := suite.NewRunner(&out).Run(context.Background(), s.Cases())
	require.NoError(t, err)

	assert.True(t, summary.OK(), out.String())
	assert.Equal(t, len(s.Cases()), summary.Run)
	assert.Equal(t, summary.Run, summary.Passed, out.String())
}

func TestSuiteIsRepeatable(t *testing.T) {
	t.Parallel()
	client := devNodeClient(t)
	s, err := suite.New(client, defaultOptions())
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		summary, err := suite.NewRunner(nil).Run(context.Background(), s.Cases())
		require.NoError(t, err)
		assert.True(t, summary.OK(), "run %d: %s", i, summary)
	}
}

func TestCaseOrder(t *testing.T) {
	t.Parallel()
	s, err := suite.New(rpc.NewClient(""), defaultOptions())
	require.NoError(t, err)

	names := make([]string, 0)
	for _, c := range s.Cases() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{
		"block_count",
		"block_count_type",
		"unchecked",
		"wallet_create",
		"wallet_add",
		"wallet_change_seed",
		"account_create",
		"wallet_balances",
		"account_balance",
		"account_info",
		"account_history",
		"account_key",
		"deterministic_key",
		"key_create",
		"frontiers",
		"block_create",
		"send_receive",
	}, names)
}

func TestNodeErrorsAreCaseErrors(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Unknown command"}`))
	}))
	t.Cleanup(srv.Close)

	s, err := suite.New(rpc.NewClient(srv.URL), defaultOptions())
	require.NoError(t, err)

	var out bytes.Buffer
	summary, err := suite.NewRunner(&out).Run(context.Background(), s.Cases())
	require.NoError(t, err)
	assert.Equal(t, summary.Run, summary.Errors)
	assert.Contains(t, out.String(), "block_count: node error: Unknown command")
}

func TestNewValidatesOptions(t *testing.T) {
	t.Parallel()
	client := rpc.NewClient("")

	opts := defaultOptions()
	opts.GenesisKey = "nope"
	_, err := suite.New(client, opts)
	assert.Error(t, err)

	opts = defaultOptions()
	opts.Seed = ""
	_, err = suite.New(client, opts)
	assert.Error(t, err)

	opts = defaultOptions()
	opts.SendAmount = "0"
	_, err = suite.New(client, opts)
	assert.Error(t, err)

	// the account is derived when not given
	opts = defaultOptions()
	opts.GenesisAccount = ""
	_, err = suite.New(client, opts)
	assert.NoError(t, err)
}

func TestCasesFailOnWrongAnswers(t *testing.T) {
	t.Parallel()
	genesis := config.DefaultGenesisAccount
	tests := []struct {
		name      string
		responses map[string]string
		message   string
	}{
		{
			name:      "block_count",
			responses: map[string]string{"block_count": `{"count":"0","unchecked":"0"}`},
			message:   "block count",
		},
		{
			name:      "block_count_type",
			responses: map[string]string{"block_count_type": `{"send":"0","receive":"1","open":"1","change":"0","state":"0"}`},
			message:   "open blocks",
		},
		{
			name:      "wallet_create",
			responses: map[string]string{"wallet_create": `{"wallet":"` + wallet[1:] + `"}`},
			message:   "wallet id",
		},
		{
			name: "wallet_add",
			responses: map[string]string{
				"wallet_create": `{"wallet":"` + wallet + `"}`,
				"wallet_add":    `{"account":"` + destination + `"}`,
			},
			message: destination,
		},
		{
			name: "account_key",
			responses: map[string]string{
				"account_key": `{"key":"` + sendHash + `"}`,
				"account_get": `{"account":"` + genesis + `"}`,
			},
			message: "expected key",
		},
		{
			name: "send_receive",
			responses: map[string]string{
				"wallet_create":    `{"wallet":"` + wallet + `"}`,
				"wallet_add":       `{"account":"` + genesis + `"}`,
				"account_create":   `{"account":"` + destination + `"}`,
				"account_balance":  `{"balance":"0","pending":"0"}`,
				"send":             `{"block":"` + sendHash + `"}`,
				"accounts_pending": `{"blocks":{"` + destination + `":{"` + sendHash + `":{"amount":"100000000000","source":"` + genesis + `"}}}}`,
				"block_account":    `{"account":"` + genesis + `"}`,
				"receive":          `{"block":"` + receiveHash + `"}`,
			},
			message: "received 0, sent 100000000000",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s, err := suite.New(cannedNode(t, tc.responses), defaultOptions())
			require.NoError(t, err)
			cases, err := suite.Select(s.Cases(), []string{tc.name})
			require.NoError(t, err)

			summary, err := suite.NewRunner(nil).Run(context.Background(), cases)
			require.NoError(t, err)
			require.Len(t, summary.Results, 1)
			result := summary.Results[0]
			assert.Equal(t, suite.StatusFail, result.Status, result.Message)
			assert.Contains(t, result.Message, tc.message)
			assert.False(t, summary.OK())
		})
	}
}
