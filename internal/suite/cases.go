package suite

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/USA-RedDragon/germ-rpctest/internal/keys"
	"github.com/USA-RedDragon/germ-rpctest/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	walletIDLength = 64
	hashLength     = 64
)

type Options struct {
	GenesisKey     string
	GenesisAccount string
	Seed           string
	SendAmount     string
}

// Suite holds the cases exercising a node through client.
type Suite struct {
	client *rpc.Client
	opts   Options

	genesis    keys.PrivateKey
	seed       keys.PrivateKey
	sendAmount *big.Int
}

func New(client *rpc.Client, opts Options) (*Suite, error) {
	genesis, err := keys.ParsePrivateKey(opts.GenesisKey)
	if err != nil {
		return nil, fmt.Errorf("invalid genesis key: %w", err)
	}
	seed, err := keys.ParsePrivateKey(opts.Seed)
	if err != nil {
		return nil, fmt.Errorf("invalid seed: %w", err)
	}
	amount, ok := new(big.Int).SetString(opts.SendAmount, 10)
	if !ok || amount.Sign() <= 0 {
		return nil, fmt.Errorf("invalid send amount %q", opts.SendAmount)
	}
	if opts.GenesisAccount == "" {
		opts.GenesisAccount = genesis.Public().Account()
	}
	return &Suite{
		client:     client,
		opts:       opts,
		genesis:    genesis,
		seed:       seed,
		sendAmount: amount,
	}, nil
}

// Cases returns every case in execution order.
func (s *Suite) Cases() []Case {
	return []Case{
		{Name: "block_count", Run: s.blockCount},
		{Name: "block_count_type", Run: s.blockCountType},
		{Name: "unchecked", Run: s.unchecked},
		{Name: "wallet_create", Run: s.walletCreate},
		{Name: "wallet_add", Run: s.walletAdd},
		{Name: "wallet_change_seed", Run: s.walletChangeSeed},
		{Name: "account_create", Run: s.accountCreate},
		{Name: "wallet_balances", Run: s.walletBalances},
		{Name: "account_balance", Run: s.accountBalance},
		{Name: "account_info", Run: s.accountInfo},
		{Name: "account_history", Run: s.accountHistory},
		{Name: "account_key", Run: s.accountKey},
		{Name: "deterministic_key", Run: s.deterministicKey},
		{Name: "key_create", Run: s.keyCreate},
		{Name: "frontiers", Run: s.frontiers},
		{Name: "block_create", Run: s.blockCreate},
		{Name: "send_receive", Run: s.sendReceive},
	}
}

func isHex(s string) bool {
	_, err := hex.DecodeString(s)
	return err == nil
}

// genesisWallet creates a wallet holding the genesis key.
func (s *Suite) genesisWallet(ctx context.Context) (wallet string, account string, err error) {
	wallet, err = s.client.WalletCreate(ctx)
	if err != nil {
		return "", "", err
	}
	account, err = s.client.WalletAdd(ctx, wallet, s.opts.GenesisKey)
	if err != nil {
		return "", "", err
	}
	return wallet, account, nil
}

func (s *Suite) blockCount(ctx context.Context, t *T) error {
	count, err := s.client.BlockCount(ctx)
	if err != nil {
		return err
	}
	t.Logf("count=%d unchecked=%d", count.Count, count.Unchecked)
	assert.GreaterOrEqual(t, uint64(count.Count), uint64(1), "block count")
	return nil
}

func (s *Suite) blockCountType(ctx context.Context, t *T) error {
	count, err := s.client.BlockCountType(ctx)
	if err != nil {
		return err
	}
	t.Logf("send=%d receive=%d open=%d change=%d state=%d", count.Send, count.Receive, count.Open, count.Change, count.State)
	assert.GreaterOrEqual(t, uint64(count.Receive), uint64(1), "receive blocks")
	assert.Zero(t, uint64(count.Open), "open blocks")
	assert.Zero(t, uint64(count.Change), "change blocks")
	return nil
}

func (s *Suite) unchecked(ctx context.Context, t *T) error {
	blocks, err := s.client.Unchecked(ctx, 1)
	if err != nil {
		return err
	}
	t.Logf("unchecked blocks: %d", len(blocks))
	assert.NotNil(t, blocks)
	for hash := range blocks {
		assert.Len(t, hash, hashLength, "unchecked block hash")
	}
	return nil
}

func (s *Suite) walletCreate(ctx context.Context, t *T) error {
	wallet, err := s.client.WalletCreate(ctx)
	if err != nil {
		return err
	}
	t.Logf("wallet=%s", wallet)
	assert.Len(t, wallet, walletIDLength, "wallet id")
	assert.True(t, isHex(wallet), "wallet id %q is not hexadecimal", wallet)
	return nil
}

func (s *Suite) walletAdd(ctx context.Context, t *T) error {
	_, account, err := s.genesisWallet(ctx)
	if err != nil {
		return err
	}
	t.Logf("account=%s", account)
	assert.Equal(t, s.opts.GenesisAccount, account)
	return nil
}

func (s *Suite) walletChangeSeed(ctx context.Context, t *T) error {
	wallet, err := s.client.WalletCreate(ctx)
	if err != nil {
		return err
	}
	if err := s.client.WalletChangeSeed(ctx, wallet, s.opts.Seed); err != nil {
		return err
	}

	// Changing the seed restores index 0, so the next account is index 1
	first := keys.DeterministicKey(s.seed, 0).Public().Account()
	second := keys.DeterministicKey(s.seed, 1).Public().Account()

	created, err := s.client.AccountsCreate(ctx, wallet, 1)
	if err != nil {
		return err
	}
	require.Len(t, created, 1, "accounts_create(1)")
	assert.Equal(t, second, created[0])

	accounts, err := s.client.AccountList(ctx, wallet)
	if err != nil {
		return err
	}
	t.Logf("accounts=%v", []string(accounts))
	assert.Contains(t, accounts, first)
	assert.Contains(t, accounts, second)
	return nil
}

func (s *Suite) accountCreate(ctx context.Context, t *T) error {
	wallet, genesis, err := s.genesisWallet(ctx)
	if err != nil {
		return err
	}
	account, err := s.client.AccountCreate(ctx, wallet)
	if err != nil {
		return err
	}
	assert.True(t, keys.ValidAccount(account), "account %q is not a valid address", account)

	accounts, err := s.client.AccountList(ctx, wallet)
	if err != nil {
		return err
	}
	t.Logf("accounts=%v", []string(accounts))
	assert.Len(t, accounts, 2)
	assert.Contains(t, accounts, genesis)
	assert.Contains(t, accounts, account)
	return nil
}

func (s *Suite) walletBalances(ctx context.Context, t *T) error {
	wallet, genesis, err := s.genesisWallet(ctx)
	if err != nil {
		return err
	}
	balances, err := s.client.WalletBalances(ctx, wallet)
	if err != nil {
		return err
	}
	require.Contains(t, balances, genesis)
	walletBalance := balances[genesis]
	t.Logf("balance=%s pending=%s", walletBalance.Balance.String(), walletBalance.Pending.String())
	assert.Positive(t, walletBalance.Balance.Sign(), "genesis balance")

	byAccount, err := s.client.AccountsBalances(ctx, []string{genesis})
	if err != nil {
		return err
	}
	require.Contains(t, byAccount, genesis)
	accountBalance := byAccount[genesis]
	assert.Zero(t, walletBalance.Balance.Cmp(&accountBalance.Balance.Int), "wallet_balances and accounts_balances disagree")
	return nil
}

func (s *Suite) accountBalance(ctx context.Context, t *T) error {
	balance, err := s.client.AccountBalance(ctx, s.opts.GenesisAccount)
	if err != nil {
		return err
	}
	t.Logf("balance=%s pending=%s", balance.Balance.String(), balance.Pending.String())
	assert.GreaterOrEqual(t, balance.Balance.Sign(), 0, "balance")
	assert.GreaterOrEqual(t, balance.Pending.Sign(), 0, "pending")

	count, err := s.client.AccountBlockCount(ctx, s.opts.GenesisAccount)
	if err != nil {
		return err
	}
	assert.GreaterOrEqual(t, uint64(count), uint64(1), "account block count")
	return nil
}

func (s *Suite) accountInfo(ctx context.Context, t *T) error {
	info, err := s.client.AccountInfo(ctx, s.opts.GenesisAccount, true)
	if err != nil {
		return err
	}
	t.Logf("frontier=%s open_block=%s block_count=%d", info.Frontier, info.OpenBlock, info.BlockCount)
	assert.Len(t, info.Frontier, hashLength, "frontier")
	assert.Len(t, info.OpenBlock, hashLength, "open block")
	assert.GreaterOrEqual(t, uint64(info.BlockCount), uint64(1), "block count")
	assert.NotNil(t, info.Pending, "pending requested but missing")
	return nil
}

func (s *Suite) accountHistory(ctx context.Context, t *T) error {
	info, err := s.client.AccountInfo(ctx, s.opts.GenesisAccount, false)
	if err != nil {
		return err
	}
	history, err := s.client.AccountHistory(ctx, s.opts.GenesisAccount, 1)
	if err != nil {
		return err
	}
	require.Len(t, history.History, 1, "history entries")
	entry := history.History[0]
	t.Logf("type=%s hash=%s", entry.Type, entry.Hash)
	assert.Equal(t, info.Frontier, entry.Hash, "newest history entry is not the frontier")
	assert.NotEmpty(t, entry.Type)

	chain, err := s.client.Chain(ctx, info.Frontier, 1)
	if err != nil {
		return err
	}
	require.Len(t, chain, 1, "chain")
	assert.Equal(t, info.Frontier, chain[0])
	return nil
}

func (s *Suite) accountKey(ctx context.Context, t *T) error {
	expected := s.genesis.Public().String()
	key, err := s.client.AccountKey(ctx, s.opts.GenesisAccount)
	if err != nil {
		return err
	}
	t.Logf("key=%s", key)
	assert.True(t, strings.EqualFold(expected, key), "expected key %s, got %s", expected, key)

	account, err := s.client.AccountGet(ctx, key)
	if err != nil {
		return err
	}
	assert.Equal(t, s.opts.GenesisAccount, account)
	return nil
}

func (s *Suite) deterministicKey(ctx context.Context, t *T) error {
	pair, err := s.client.DeterministicKey(ctx, s.opts.Seed, 0)
	if err != nil {
		return err
	}
	local := keys.DeterministicKey(s.seed, 0)
	t.Logf("account=%s", pair.Account)
	assert.True(t, strings.EqualFold(local.String(), pair.Private), "private key mismatch")
	assert.True(t, strings.EqualFold(local.Public().String(), pair.Public), "public key mismatch")
	assert.Equal(t, local.Public().Account(), pair.Account)
	return nil
}

func (s *Suite) keyCreate(ctx context.Context, t *T) error {
	pair, err := s.client.KeyCreate(ctx)
	if err != nil {
		return err
	}
	t.Logf("account=%s", pair.Account)
	priv, err := keys.ParsePrivateKey(pair.Private)
	require.NoError(t, err, "private key")
	assert.True(t, strings.EqualFold(priv.Public().String(), pair.Public), "public key does not belong to the private key")
	assert.Equal(t, priv.Public().Account(), pair.Account)
	return nil
}

func (s *Suite) frontiers(ctx context.Context, t *T) error {
	count, err := s.client.FrontierCount(ctx)
	if err != nil {
		return err
	}
	t.Logf("frontier_count=%d", count)
	assert.GreaterOrEqual(t, uint64(count), uint64(1), "frontier count")

	byAccount, err := s.client.AccountsFrontiers(ctx, []string{s.opts.GenesisAccount})
	if err != nil {
		return err
	}
	require.Contains(t, byAccount, s.opts.GenesisAccount)
	frontier := byAccount[s.opts.GenesisAccount]
	assert.Len(t, frontier, hashLength)

	listed, err := s.client.Frontiers(ctx, s.opts.GenesisAccount, 1)
	if err != nil {
		return err
	}
	assert.Equal(t, frontier, listed[s.opts.GenesisAccount], "frontiers and accounts_frontiers disagree")

	account, err := s.client.BlockAccount(ctx, frontier)
	if err != nil {
		return err
	}
	assert.Equal(t, s.opts.GenesisAccount, account)
	return nil
}

func (s *Suite) blockCreate(ctx context.Context, t *T) error {
	wallet, genesis, err := s.genesisWallet(ctx)
	if err != nil {
		return err
	}
	info, err := s.client.AccountInfo(ctx, genesis, false)
	if err != nil {
		return err
	}
	destination, err := s.client.AccountCreate(ctx, wallet)
	if err != nil {
		return err
	}

	block, err := s.client.SendCreate(ctx, rpc.SendBlockRequest{
		Wallet:      wallet,
		Account:     genesis,
		Destination: destination,
		Balance:     info.Balance.String(),
		Amount:      s.sendAmount.String(),
		Previous:    info.Frontier,
	})
	if err != nil {
		return err
	}
	t.Logf("hash=%s", block.Hash)
	assert.Len(t, block.Hash, hashLength, "block hash")
	assert.NotEmpty(t, block.Block, "block contents")

	// block_create must not publish the block
	after, err := s.client.AccountInfo(ctx, genesis, false)
	if err != nil {
		return err
	}
	assert.Equal(t, info.Frontier, after.Frontier, "frontier moved after block_create")
	return nil
}

func (s *Suite) sendReceive(ctx context.Context, t *T) error {
	wallet, source, err := s.genesisWallet(ctx)
	if err != nil {
		return err
	}
	destination, err := s.client.AccountCreate(ctx, wallet)
	if err != nil {
		return err
	}
	before, err := s.client.AccountBalance(ctx, destination)
	if err != nil {
		return err
	}

	sent, err := s.client.Send(ctx, wallet, source, destination, s.sendAmount.String())
	if err != nil {
		return err
	}
	t.Logf("send=%s", sent)
	require.NotEmpty(t, sent, "send block")
	assert.Len(t, sent, hashLength, "send block")

	pending, err := s.client.AccountsPending(ctx, []string{destination}, 10, true)
	if err != nil {
		return err
	}
	require.Contains(t, pending, destination)
	require.Contains(t, pending[destination], sent, "send block is not pending")
	if block := pending[destination][sent]; block.Source != "" {
		assert.Equal(t, source, block.Source)
	}

	owner, err := s.client.BlockAccount(ctx, sent)
	if err != nil {
		return err
	}
	assert.Equal(t, source, owner)

	received, err := s.client.Receive(ctx, wallet, destination, sent)
	if err != nil {
		return err
	}
	t.Logf("receive=%s", received)
	require.NotEmpty(t, received, "receive block")
	assert.Len(t, received, hashLength, "receive block")
	assert.NotEqual(t, sent, received)

	after, err := s.client.AccountBalance(ctx, destination)
	if err != nil {
		return err
	}
	delta := new(big.Int).Sub(&after.Balance.Int, &before.Balance.Int)
	assert.Zero(t, delta.Cmp(s.sendAmount), "received %s, sent %s", delta, s.sendAmount)
	return nil
}
