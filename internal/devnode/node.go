package devnode

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/USA-RedDragon/germ-rpctest/internal/keys"
	"github.com/go-errors/errors"
	"github.com/puzpuzpuz/xsync/v3"
)

var (
	ErrUnknownCommand      = errors.New("Unknown command")
	ErrWalletNotFound      = errors.New("Wallet not found")
	ErrBadWalletNumber     = errors.New("Bad wallet number")
	ErrBadPrivateKey       = errors.New("Bad private key")
	ErrBadPublicKey        = errors.New("Bad public key")
	ErrBadSeed             = errors.New("Bad seed")
	ErrBadAccountNumber    = errors.New("Bad account number")
	ErrBadDestination      = errors.New("Bad destination account")
	ErrBadAmount           = errors.New("Bad amount number")
	ErrBadBalance          = errors.New("Bad balance number")
	ErrBadBlockHash        = errors.New("Bad block hash")
	ErrBadPreviousHash     = errors.New("Bad previous hash")
	ErrInvalidCount        = errors.New("Invalid count limit")
	ErrInvalidIndex        = errors.New("Invalid index")
	ErrInvalidBlockType    = errors.New("Invalid block type")
	ErrAccountNotInWallet  = errors.New("Account not found in wallet")
	ErrMissingAccountsList = errors.New("Missing accounts")
)

// Metrics receives one observation per handled action.
type Metrics interface {
	ObserveRequest(action string, outcome string, duration time.Duration)
}

const maxAccountsCreate = 10000

type handlerFunc func(p Params) (any, error)

// Node simulates the RPC surface of a single node with an in-memory ledger.
type Node struct {
	ledger   *Ledger
	wallets  *xsync.MapOf[string, *Wallet]
	genesis  string
	metrics  Metrics
	now      func() time.Time
	handlers map[string]handlerFunc
}

type Option func(*Node)

func WithMetrics(m Metrics) Option {
	return func(n *Node) {
		n.metrics = m
	}
}

// New creates a node whose ledger holds the whole supply in the genesis account.
func New(genesis keys.PrivateKey, opts ...Option) *Node {
	n := &Node{
		wallets: xsync.NewMapOf[string, *Wallet](),
		genesis: genesis.Public().Account(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	n.ledger = NewLedger(n.genesis, n.now)
	n.handlers = map[string]handlerFunc{
		"account_balance":     n.accountBalance,
		"account_block_count": n.accountBlockCount,
		"account_create":      n.accountCreate,
		"account_get":         n.accountGet,
		"account_history":     n.accountHistory,
		"account_info":        n.accountInfo,
		"account_key":         n.accountKey,
		"account_list":        n.accountList,
		"accounts_balances":   n.accountsBalances,
		"accounts_create":     n.accountsCreate,
		"accounts_frontiers":  n.accountsFrontiers,
		"accounts_pending":    n.accountsPending,
		"block_account":       n.blockAccount,
		"block_confirm":       n.blockConfirm,
		"block_count":         n.blockCount,
		"block_count_type":    n.blockCountType,
		"block_create":        n.blockCreate,
		"chain":               n.chain,
		"deterministic_key":   n.deterministicKey,
		"frontier_count":      n.frontierCount,
		"frontiers":           n.frontiers,
		"key_create":          n.keyCreate,
		"receive":             n.receive,
		"send":                n.send,
		"unchecked":           n.unchecked,
		"wallet_add":          n.walletAdd,
		"wallet_balances":     n.walletBalances,
		"wallet_change_seed":  n.walletChangeSeed,
		"wallet_create":       n.walletCreate,
	}
	return n
}

func (n *Node) Ledger() *Ledger {
	return n.ledger
}

func (n *Node) Genesis() string {
	return n.genesis
}

// Dispatch runs action. The returned error message is what the node reports
// in the "error" field of its reply.
func (n *Node) Dispatch(action string, p Params) (any, error) {
	handler, ok := n.handlers[action]
	if !ok {
		return nil, ErrUnknownCommand
	}
	start := n.now()
	resp, err := handler(p)
	if n.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		n.metrics.ObserveRequest(action, outcome, n.now().Sub(start))
	}
	return resp, err
}

func (n *Node) wallet(p Params) (*Wallet, error) {
	id := strings.ToUpper(p.String("wallet"))
	if len(id) != 64 || !isHex(id) {
		return nil, ErrBadWalletNumber
	}
	w, ok := n.wallets.Load(id)
	if !ok {
		return nil, ErrWalletNotFound
	}
	return w, nil
}

func isHex(s string) bool {
	_, err := hex.DecodeString(s)
	return err == nil
}

func parseHash(s string) (string, bool) {
	s = strings.ToUpper(s)
	return s, len(s) == 64 && isHex(s)
}

func account(p Params, key string) (string, error) {
	acct := p.String(key)
	if _, err := keys.DecodeAccount(acct); err != nil {
		return "", ErrBadAccountNumber
	}
	return acct, nil
}

func (n *Node) blockCount(Params) (any, error) {
	count, unchecked := n.ledger.BlockCount()
	return map[string]string{
		"count":     formatUint(count),
		"unchecked": formatUint(unchecked),
	}, nil
}

func (n *Node) blockCountType(Params) (any, error) {
	out := map[string]string{}
	for _, t := range []BlockType{BlockTypeSend, BlockTypeReceive, BlockTypeOpen, BlockTypeChange, BlockTypeState} {
		out[string(t)] = formatUint(n.ledger.CountByType(t))
	}
	return out, nil
}

func (n *Node) unchecked(p Params) (any, error) {
	count, ok := p.Uint("count", 0)
	if !ok {
		return nil, ErrInvalidCount
	}
	return map[string]any{"blocks": orEmptyMap(n.ledger.Unchecked(count))}, nil
}

func (n *Node) walletCreate(Params) (any, error) {
	id, err := newWalletID()
	if err != nil {
		return nil, err
	}
	w, err := newWallet()
	if err != nil {
		return nil, err
	}
	n.wallets.Store(id, w)
	return map[string]string{"wallet": id}, nil
}

func (n *Node) walletAdd(p Params) (any, error) {
	w, err := n.wallet(p)
	if err != nil {
		return nil, err
	}
	private, err := keys.ParsePrivateKey(p.String("key"))
	if err != nil {
		return nil, ErrBadPrivateKey
	}
	return map[string]string{"account": w.Insert(private)}, nil
}

func (n *Node) walletChangeSeed(p Params) (any, error) {
	w, err := n.wallet(p)
	if err != nil {
		return nil, err
	}
	seed, err := keys.ParsePrivateKey(p.String("seed"))
	if err != nil {
		return nil, ErrBadSeed
	}
	w.ChangeSeed(seed)
	return map[string]string{"success": ""}, nil
}

func (n *Node) accountCreate(p Params) (any, error) {
	w, err := n.wallet(p)
	if err != nil {
		return nil, err
	}
	return map[string]string{"account": w.CreateAccounts(1)[0]}, nil
}

func (n *Node) accountsCreate(p Params) (any, error) {
	w, err := n.wallet(p)
	if err != nil {
		return nil, err
	}
	count, ok := p.Uint("count", 0)
	if !ok || count == 0 || count > maxAccountsCreate {
		return nil, ErrInvalidCount
	}
	return map[string]any{"accounts": w.CreateAccounts(count)}, nil
}

func (n *Node) accountList(p Params) (any, error) {
	w, err := n.wallet(p)
	if err != nil {
		return nil, err
	}
	return map[string]any{"accounts": orEmpty(w.Accounts())}, nil
}

func (n *Node) balanceOf(acct string) map[string]string {
	balance, pending := n.ledger.Balance(acct)
	return map[string]string{
		"balance": balance.String(),
		"pending": pending.String(),
	}
}

func (n *Node) walletBalances(p Params) (any, error) {
	w, err := n.wallet(p)
	if err != nil {
		return nil, err
	}
	balances := map[string]map[string]string{}
	for _, acct := range w.Accounts() {
		balances[acct] = n.balanceOf(acct)
	}
	return map[string]any{"balances": orEmptyMap(balances)}, nil
}

func (n *Node) accountBalance(p Params) (any, error) {
	acct, err := account(p, "account")
	if err != nil {
		return nil, err
	}
	return n.balanceOf(acct), nil
}

func (n *Node) accountBlockCount(p Params) (any, error) {
	acct, err := account(p, "account")
	if err != nil {
		return nil, err
	}
	info, err := n.ledger.Account(acct)
	if err != nil {
		return nil, err
	}
	return map[string]string{"block_count": formatUint(info.BlockCount)}, nil
}

func (n *Node) accountInfo(p Params) (any, error) {
	acct, err := account(p, "account")
	if err != nil {
		return nil, err
	}
	info, err := n.ledger.Account(acct)
	if err != nil {
		return nil, err
	}
	out := map[string]string{
		"frontier":             info.Frontier,
		"open_block":           info.OpenBlock,
		"representative_block": info.OpenBlock,
		"balance":              info.Balance.String(),
		"modified_timestamp":   formatUint(uint64(info.Modified.Unix())),
		"block_count":          formatUint(info.BlockCount),
	}
	if p.Bool("pending") {
		_, pending := n.ledger.Balance(acct)
		out["pending"] = pending.String()
	}
	if p.Bool("weight") {
		out["weight"] = info.Balance.String()
	}
	return out, nil
}

func (n *Node) accountGet(p Params) (any, error) {
	pub, err := keys.ParsePublicKey(p.String("key"))
	if err != nil {
		return nil, ErrBadPublicKey
	}
	return map[string]string{"account": pub.Account()}, nil
}

func (n *Node) accountKey(p Params) (any, error) {
	acct := p.String("account")
	pub, err := keys.DecodeAccount(acct)
	if err != nil {
		return nil, ErrBadAccountNumber
	}
	return map[string]string{"key": pub.String()}, nil
}

func (n *Node) accountHistory(p Params) (any, error) {
	acct, err := account(p, "account")
	if err != nil {
		return nil, err
	}
	count, ok := p.Uint("count", 0)
	if !ok || !p.Has("count") {
		return nil, ErrInvalidCount
	}
	entries, previous, err := n.ledger.History(acct, count)
	if err != nil {
		return nil, err
	}
	history := make([]map[string]string, 0, len(entries))
	for _, e := range entries {
		history = append(history, map[string]string{
			"type":    string(e.Type),
			"account": e.Account,
			"amount":  e.Amount.String(),
			"hash":    e.Hash,
		})
	}
	out := map[string]any{
		"account": acct,
		"history": orEmpty(history),
	}
	if previous != "" {
		out["previous"] = previous
	}
	return out, nil
}

func (n *Node) accountsBalances(p Params) (any, error) {
	accounts := p.Strings("accounts")
	if accounts == nil {
		return nil, ErrMissingAccountsList
	}
	balances := map[string]map[string]string{}
	for _, acct := range accounts {
		if _, err := keys.DecodeAccount(acct); err != nil {
			return nil, ErrBadAccountNumber
		}
		balances[acct] = n.balanceOf(acct)
	}
	return map[string]any{"balances": orEmptyMap(balances)}, nil
}

func (n *Node) accountsFrontiers(p Params) (any, error) {
	accounts := p.Strings("accounts")
	if accounts == nil {
		return nil, ErrMissingAccountsList
	}
	frontiers := map[string]string{}
	for _, acct := range accounts {
		if _, err := keys.DecodeAccount(acct); err != nil {
			return nil, ErrBadAccountNumber
		}
		if info, err := n.ledger.Account(acct); err == nil {
			frontiers[acct] = info.Frontier
		}
	}
	return map[string]any{"frontiers": orEmptyMap(frontiers)}, nil
}

func (n *Node) accountsPending(p Params) (any, error) {
	accounts := p.Strings("accounts")
	if accounts == nil {
		return nil, ErrMissingAccountsList
	}
	count, ok := p.Uint("count", 0)
	if !ok {
		return nil, ErrInvalidCount
	}
	source := p.Bool("source")
	blocks := map[string]any{}
	for _, acct := range accounts {
		if _, err := keys.DecodeAccount(acct); err != nil {
			return nil, ErrBadAccountNumber
		}
		pending := n.ledger.Pending(acct, count)
		if source {
			withSource := map[string]map[string]string{}
			for _, b := range pending {
				withSource[b.Hash] = map[string]string{"amount": b.Amount.String(), "source": b.Source}
			}
			blocks[acct] = orEmptyMap(withSource)
			continue
		}
		hashes := make([]string, 0, len(pending))
		for _, b := range pending {
			hashes = append(hashes, b.Hash)
		}
		blocks[acct] = orEmpty(hashes)
	}
	return map[string]any{"blocks": orEmptyMap(blocks)}, nil
}

func (n *Node) chain(p Params) (any, error) {
	hash, ok := parseHash(p.String("block"))
	if !ok {
		return nil, ErrBadBlockHash
	}
	count, ok := p.Uint("count", 0)
	if !ok || !p.Has("count") {
		return nil, ErrInvalidCount
	}
	hashes, err := n.ledger.Chain(hash, count)
	if err != nil {
		return nil, err
	}
	return map[string]any{"blocks": orEmpty(hashes)}, nil
}

func (n *Node) blockAccount(p Params) (any, error) {
	hash, ok := parseHash(p.String("hash"))
	if !ok {
		return nil, ErrBadBlockHash
	}
	b, err := n.ledger.Block(hash)
	if err != nil {
		return nil, err
	}
	return map[string]string{"account": b.Account}, nil
}

// blockConfirm reports the election as started. Every block in the ledger is
// already confirmed, so there is nothing else to do.
func (n *Node) blockConfirm(p Params) (any, error) {
	hash, ok := parseHash(p.String("hash"))
	if !ok {
		return nil, ErrBadBlockHash
	}
	if _, err := n.ledger.Block(hash); err != nil {
		return nil, err
	}
	return map[string]string{"started": "1"}, nil
}

func keyPair(private keys.PrivateKey) map[string]string {
	pub := private.Public()
	return map[string]string{
		"private": private.String(),
		"public":  pub.String(),
		"account": pub.Account(),
	}
}

func (n *Node) deterministicKey(p Params) (any, error) {
	seed, err := keys.ParsePrivateKey(p.String("seed"))
	if err != nil {
		return nil, ErrBadSeed
	}
	index, ok := p.Uint("index", 0)
	if !ok || index > uint64(^uint32(0)) {
		return nil, ErrInvalidIndex
	}
	return keyPair(keys.DeterministicKey(seed, uint32(index))), nil
}

func (n *Node) keyCreate(Params) (any, error) {
	private, err := keys.GenerateKey()
	if err != nil {
		return nil, err
	}
	return keyPair(private), nil
}

func (n *Node) frontiers(p Params) (any, error) {
	acct := p.String("account")
	pub, err := keys.DecodeAccount(acct)
	if err != nil {
		return nil, ErrBadAccountNumber
	}
	count, ok := p.Uint("count", 0)
	if !ok || !p.Has("count") {
		return nil, ErrInvalidCount
	}
	return map[string]any{"frontiers": orEmptyMap(n.ledger.Frontiers(pub, count))}, nil
}

func (n *Node) frontierCount(Params) (any, error) {
	return map[string]string{"count": formatUint(n.ledger.FrontierCount())}, nil
}

// walletAccount resolves the wallet and checks that it holds the account named by key.
func (n *Node) walletAccount(p Params, key string) (string, error) {
	w, err := n.wallet(p)
	if err != nil {
		return "", err
	}
	acct, err := account(p, key)
	if err != nil {
		return "", err
	}
	if !w.Contains(acct) {
		return "", ErrAccountNotInWallet
	}
	return acct, nil
}

// blockCreate builds a block without adding it to the ledger.
func (n *Node) blockCreate(p Params) (any, error) {
	acct, err := n.walletAccount(p, "account")
	if err != nil {
		return nil, err
	}
	var b *Block
	switch BlockType(p.String("type")) {
	case BlockTypeSend:
		destination := p.String("destination")
		if _, err := keys.DecodeAccount(destination); err != nil {
			return nil, ErrBadDestination
		}
		balance, ok := p.Amount("balance")
		if !ok {
			return nil, ErrBadBalance
		}
		amount, ok := p.Amount("amount")
		if !ok {
			return nil, ErrBadAmount
		}
		previous, ok := parseHash(p.String("previous"))
		if !ok {
			return nil, ErrBadPreviousHash
		}
		b, err = n.ledger.BuildSend(acct, previous, destination, balance, amount)
	case BlockTypeReceive:
		source, ok := parseHash(p.String("source"))
		if !ok {
			return nil, ErrBadBlockHash
		}
		// unopened accounts have no previous block
		previous := p.String("previous")
		if previous != "" {
			if previous, ok = parseHash(previous); !ok {
				return nil, ErrBadPreviousHash
			}
		}
		b, err = n.ledger.BuildReceive(acct, previous, source)
	default:
		return nil, ErrInvalidBlockType
	}
	if err != nil {
		return nil, err
	}
	return map[string]string{"hash": b.Hash, "block": b.JSON()}, nil
}

func (n *Node) send(p Params) (any, error) {
	source, err := n.walletAccount(p, "source")
	if err != nil {
		return nil, err
	}
	destination := p.String("destination")
	if _, err := keys.DecodeAccount(destination); err != nil {
		return nil, ErrBadDestination
	}
	amount, ok := p.Amount("amount")
	if !ok {
		return nil, ErrBadAmount
	}
	b, err := n.ledger.Send(source, destination, amount)
	if err != nil {
		return nil, err
	}
	return map[string]string{"block": b.Hash}, nil
}

func (n *Node) receive(p Params) (any, error) {
	acct, err := n.walletAccount(p, "account")
	if err != nil {
		return nil, err
	}
	hash, ok := parseHash(p.String("block"))
	if !ok {
		return nil, ErrBadBlockHash
	}
	b, err := n.ledger.Receive(acct, hash)
	if err != nil {
		return nil, err
	}
	return map[string]string{"block": b.Hash}, nil
}
