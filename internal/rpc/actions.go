package rpc

import (
	"context"
	"strconv"
)

func itoa(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func (c *Client) BlockCount(ctx context.Context) (BlockCount, error) {
	var out BlockCount
	err := c.Call(ctx, "block_count", nil, &out)
	return out, err
}

func (c *Client) BlockCountType(ctx context.Context) (BlockCountByType, error) {
	var out BlockCountByType
	err := c.Call(ctx, "block_count_type", nil, &out)
	return out, err
}

// Unchecked lists up to count unchecked blocks; zero leaves the limit to the node.
func (c *Client) Unchecked(ctx context.Context, count uint64) (Map[RawBlock], error) {
	params := Params{}
	if count > 0 {
		params["count"] = itoa(count)
	}
	var out struct {
		Blocks Map[RawBlock] `json:"blocks"`
	}
	err := c.Call(ctx, "unchecked", params, &out)
	return out.Blocks, err
}

func (c *Client) WalletCreate(ctx context.Context) (string, error) {
	var out struct {
		Wallet string `json:"wallet"`
	}
	err := c.Call(ctx, "wallet_create", nil, &out)
	return out.Wallet, err
}

func (c *Client) WalletAdd(ctx context.Context, wallet, key string) (string, error) {
	var out struct {
		Account string `json:"account"`
	}
	err := c.Call(ctx, "wallet_add", Params{"wallet": wallet, "key": key}, &out)
	return out.Account, err
}

func (c *Client) WalletChangeSeed(ctx context.Context, wallet, seed string) error {
	return c.Call(ctx, "wallet_change_seed", Params{"wallet": wallet, "seed": seed}, nil)
}

func (c *Client) AccountCreate(ctx context.Context, wallet string) (string, error) {
	var out struct {
		Account string `json:"account"`
	}
	err := c.Call(ctx, "account_create", Params{"wallet": wallet}, &out)
	return out.Account, err
}

func (c *Client) AccountsCreate(ctx context.Context, wallet string, count uint64) (List, error) {
	var out struct {
		Accounts List `json:"accounts"`
	}
	err := c.Call(ctx, "accounts_create", Params{"wallet": wallet, "count": itoa(count)}, &out)
	return out.Accounts, err
}

func (c *Client) AccountList(ctx context.Context, wallet string) (List, error) {
	var out struct {
		Accounts List `json:"accounts"`
	}
	err := c.Call(ctx, "account_list", Params{"wallet": wallet}, &out)
	return out.Accounts, err
}

func (c *Client) WalletBalances(ctx context.Context, wallet string) (Map[Balance], error) {
	var out struct {
		Balances Map[Balance] `json:"balances"`
	}
	err := c.Call(ctx, "wallet_balances", Params{"wallet": wallet}, &out)
	return out.Balances, err
}

func (c *Client) AccountBalance(ctx context.Context, account string) (Balance, error) {
	var out Balance
	err := c.Call(ctx, "account_balance", Params{"account": account}, &out)
	return out, err
}

func (c *Client) AccountBlockCount(ctx context.Context, account string) (Count, error) {
	var out struct {
		BlockCount Count `json:"block_count"`
	}
	err := c.Call(ctx, "account_block_count", Params{"account": account}, &out)
	return out.BlockCount, err
}

func (c *Client) AccountInfo(ctx context.Context, account string, pending bool) (AccountInfo, error) {
	var out AccountInfo
	params := Params{"account": account}
	if pending {
		params["pending"] = "true"
	}
	err := c.Call(ctx, "account_info", params, &out)
	return out, err
}

// AccountGet returns the account address of a public key.
func (c *Client) AccountGet(ctx context.Context, key string) (string, error) {
	var out struct {
		Account string `json:"account"`
	}
	err := c.Call(ctx, "account_get", Params{"key": key}, &out)
	return out.Account, err
}

func (c *Client) AccountHistory(ctx context.Context, account string, count uint64) (AccountHistory, error) {
	var out AccountHistory
	err := c.Call(ctx, "account_history", Params{"account": account, "count": itoa(count)}, &out)
	return out, err
}

// AccountKey returns the public key of an account address.
func (c *Client) AccountKey(ctx context.Context, account string) (string, error) {
	var out struct {
		Key string `json:"key"`
	}
	err := c.Call(ctx, "account_key", Params{"account": account}, &out)
	return out.Key, err
}

func (c *Client) AccountsBalances(ctx context.Context, accounts []string) (Map[Balance], error) {
	var out struct {
		Balances Map[Balance] `json:"balances"`
	}
	err := c.Call(ctx, "accounts_balances", Params{"accounts": accounts}, &out)
	return out.Balances, err
}

func (c *Client) AccountsFrontiers(ctx context.Context, accounts []string) (Map[string], error) {
	var out struct {
		Frontiers Map[string] `json:"frontiers"`
	}
	err := c.Call(ctx, "accounts_frontiers", Params{"accounts": accounts}, &out)
	return out.Frontiers, err
}

// AccountsPending lists up to count receivable blocks per account. With source
// set the node includes the amount and sending account of each block.
func (c *Client) AccountsPending(ctx context.Context, accounts []string, count uint64, source bool) (Map[PendingBlocks], error) {
	params := Params{"accounts": accounts, "count": itoa(count)}
	if source {
		params["source"] = "true"
	}
	var out struct {
		Blocks Map[PendingBlocks] `json:"blocks"`
	}
	err := c.Call(ctx, "accounts_pending", params, &out)
	return out.Blocks, err
}

// Chain walks back from block through its predecessors.
func (c *Client) Chain(ctx context.Context, block string, count uint64) (List, error) {
	var out struct {
		Blocks List `json:"blocks"`
	}
	err := c.Call(ctx, "chain", Params{"block": block, "count": itoa(count)}, &out)
	return out.Blocks, err
}

func (c *Client) BlockAccount(ctx context.Context, hash string) (string, error) {
	var out struct {
		Account string `json:"account"`
	}
	err := c.Call(ctx, "block_account", Params{"hash": hash}, &out)
	return out.Account, err
}

func (c *Client) BlockConfirm(ctx context.Context, hash string) (bool, error) {
	var out struct {
		Started Count `json:"started"`
	}
	err := c.Call(ctx, "block_confirm", Params{"hash": hash}, &out)
	return out.Started == 1, err
}

func (c *Client) DeterministicKey(ctx context.Context, seed string, index uint32) (KeyPair, error) {
	var out KeyPair
	err := c.Call(ctx, "deterministic_key", Params{"seed": seed, "index": itoa(uint64(index))}, &out)
	return out, err
}

// Frontiers lists up to count account frontiers starting at account.
func (c *Client) Frontiers(ctx context.Context, account string, count uint64) (Map[string], error) {
	var out struct {
		Frontiers Map[string] `json:"frontiers"`
	}
	err := c.Call(ctx, "frontiers", Params{"account": account, "count": itoa(count)}, &out)
	return out.Frontiers, err
}

func (c *Client) FrontierCount(ctx context.Context) (Count, error) {
	var out struct {
		Count Count `json:"count"`
	}
	err := c.Call(ctx, "frontier_count", nil, &out)
	return out.Count, err
}

func (c *Client) KeyCreate(ctx context.Context) (KeyPair, error) {
	var out KeyPair
	err := c.Call(ctx, "key_create", nil, &out)
	return out, err
}

type SendBlockRequest struct {
	Wallet      string
	Account     string
	Destination string
	// Balance of account before the send
	Balance  string
	Amount   string
	Previous string
}

// SendCreate builds a send block without publishing it.
func (c *Client) SendCreate(ctx context.Context, req SendBlockRequest) (CreatedBlock, error) {
	var out CreatedBlock
	err := c.Call(ctx, "block_create", Params{
		"type":        "send",
		"wallet":      req.Wallet,
		"account":     req.Account,
		"destination": req.Destination,
		"balance":     req.Balance,
		"amount":      req.Amount,
		"previous":    req.Previous,
	}, &out)
	return out, err
}

type ReceiveBlockRequest struct {
	Wallet   string
	Account  string
	Source   string
	Previous string
}

// ReceiveCreate builds a receive block without publishing it.
func (c *Client) ReceiveCreate(ctx context.Context, req ReceiveBlockRequest) (CreatedBlock, error) {
	var out CreatedBlock
	err := c.Call(ctx, "block_create", Params{
		"type":     "receive",
		"wallet":   req.Wallet,
		"account":  req.Account,
		"source":   req.Source,
		"previous": req.Previous,
	}, &out)
	return out, err
}

// Send moves amount raw from source to destination and returns the send block hash.
func (c *Client) Send(ctx context.Context, wallet, source, destination, amount string) (string, error) {
	var out struct {
		Block string `json:"block"`
	}
	err := c.Call(ctx, "send", Params{
		"wallet":      wallet,
		"source":      source,
		"destination": destination,
		"amount":      amount,
	}, &out)
	return out.Block, err
}

// Receive pockets the pending block into account and returns the receive block hash.
func (c *Client) Receive(ctx context.Context, wallet, account, block string) (string, error) {
	var out struct {
		Block string `json:"block"`
	}
	err := c.Call(ctx, "receive", Params{
		"wallet":  wallet,
		"account": account,
		"block":   block,
	}, &out)
	return out.Block, err
}
