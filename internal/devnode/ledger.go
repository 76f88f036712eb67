package devnode

import (
	"encoding/hex"
	"encoding/json"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/USA-RedDragon/germ-rpctest/internal/keys"
	"github.com/go-errors/errors"
	"golang.org/x/crypto/blake2b"
)

type BlockType string

const (
	BlockTypeSend    BlockType = "send"
	BlockTypeReceive BlockType = "receive"
	BlockTypeOpen    BlockType = "open"
	BlockTypeChange  BlockType = "change"
	BlockTypeState   BlockType = "state"
)

var (
	ErrAccountNotFound     = errors.New("Account not found")
	ErrBlockNotFound       = errors.New("Block not found")
	ErrInsufficientBalance = errors.New("Insufficient balance")
	ErrNotReceivable       = errors.New("Block is not available to receive")
	ErrBadPrevious         = errors.New("Previous block is not the account frontier")
)

// Block is a ledger entry. Balance is the account balance after the block.
type Block struct {
	Hash        string
	Type        BlockType
	Account     string
	Previous    string
	Destination string
	Source      string
	Amount      *big.Int
	Balance     *big.Int
}

func (b *Block) JSON() string {
	fields := map[string]string{
		"type":    string(b.Type),
		"account": b.Account,
		"balance": b.Balance.String(),
	}
	if b.Previous != "" {
		fields["previous"] = b.Previous
	}
	if b.Destination != "" {
		fields["destination"] = b.Destination
	}
	if b.Source != "" {
		fields["source"] = b.Source
	}
	data, _ := json.Marshal(fields)
	return string(data)
}

func hashBlock(b *Block) string {
	h, _ := blake2b.New256(nil)
	for _, part := range []string{string(b.Type), b.Account, b.Previous, b.Destination, b.Source, b.Amount.String(), b.Balance.String()} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return strings.ToUpper(hex.EncodeToString(h.Sum(nil)))
}

type accountState struct {
	frontier   string
	openBlock  string
	balance    *big.Int
	blockCount uint64
	modified   time.Time
}

type pendingEntry struct {
	source string
	amount *big.Int
}

// Ledger is the in-memory block store of the simulated node.
type Ledger struct {
	mu        sync.RWMutex
	blocks    map[string]*Block
	accounts  map[string]*accountState
	pending   map[string]map[string]pendingEntry
	unchecked map[string]*Block
	counts    map[BlockType]uint64
	now       func() time.Time
}

// GenesisAmount is the full supply, 2^128 - 1 raw.
func GenesisAmount() *big.Int {
	return new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
}

func NewLedger(genesis string, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	l := &Ledger{
		blocks:    map[string]*Block{},
		accounts:  map[string]*accountState{},
		pending:   map[string]map[string]pendingEntry{},
		unchecked: map[string]*Block{},
		counts:    map[BlockType]uint64{},
		now:       now,
	}
	supply := GenesisAmount()
	block := &Block{
		Type:    BlockTypeReceive,
		Account: genesis,
		Source:  genesis,
		Amount:  supply,
		Balance: new(big.Int).Set(supply),
	}
	block.Hash = hashBlock(block)
	l.apply(block)
	return l
}

func (l *Ledger) apply(b *Block) {
	l.blocks[b.Hash] = b
	l.counts[b.Type]++
	state, ok := l.accounts[b.Account]
	if !ok {
		state = &accountState{openBlock: b.Hash}
		l.accounts[b.Account] = state
	}
	state.frontier = b.Hash
	state.balance = new(big.Int).Set(b.Balance)
	state.blockCount++
	state.modified = l.now()
}

func (l *Ledger) BlockCount() (count uint64, unchecked uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return uint64(len(l.blocks)), uint64(len(l.unchecked))
}

func (l *Ledger) CountByType(t BlockType) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.counts[t]
}

func (l *Ledger) Unchecked(limit uint64) map[string]string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := map[string]string{}
	for hash, b := range l.unchecked {
		if limit > 0 && uint64(len(out)) >= limit {
			break
		}
		out[hash] = b.JSON()
	}
	return out
}

type AccountInfo struct {
	Frontier   string
	OpenBlock  string
	Balance    *big.Int
	BlockCount uint64
	Modified   time.Time
}

func (l *Ledger) Account(account string) (AccountInfo, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	state, ok := l.accounts[account]
	if !ok {
		return AccountInfo{}, ErrAccountNotFound
	}
	return AccountInfo{
		Frontier:   state.frontier,
		OpenBlock:  state.openBlock,
		Balance:    new(big.Int).Set(state.balance),
		BlockCount: state.blockCount,
		Modified:   state.modified,
	}, nil
}

// Balance returns the balance of account, zero when unopened, and the sum of
// its receivable blocks.
func (l *Ledger) Balance(account string) (balance *big.Int, pending *big.Int) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	balance = new(big.Int)
	if state, ok := l.accounts[account]; ok {
		balance.Set(state.balance)
	}
	pending = new(big.Int)
	for _, entry := range l.pending[account] {
		pending.Add(pending, entry.amount)
	}
	return balance, pending
}

func (l *Ledger) Block(hash string) (*Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	b, ok := l.blocks[strings.ToUpper(hash)]
	if !ok {
		return nil, ErrBlockNotFound
	}
	return b, nil
}

// Chain walks from hash through previous blocks, returning at most count hashes.
func (l *Ledger) Chain(hash string, count uint64) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	b, ok := l.blocks[strings.ToUpper(hash)]
	if !ok {
		return nil, ErrBlockNotFound
	}
	out := []string{}
	for b != nil && uint64(len(out)) < count {
		out = append(out, b.Hash)
		b = l.blocks[b.Previous]
	}
	return out, nil
}

// Frontiers returns up to count account frontiers, in public key order,
// starting at the account whose key is start.
func (l *Ledger) Frontiers(start keys.PublicKey, count uint64) map[string]string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	type entry struct {
		key      string
		account  string
		frontier string
	}
	entries := make([]entry, 0, len(l.accounts))
	for account, state := range l.accounts {
		pub, err := keys.DecodeAccount(account)
		if err != nil {
			continue
		}
		entries = append(entries, entry{key: hex.EncodeToString(pub[:]), account: account, frontier: state.frontier})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
	from := hex.EncodeToString(start[:])
	out := map[string]string{}
	for _, e := range entries {
		if e.key < from {
			continue
		}
		if uint64(len(out)) >= count {
			break
		}
		out[e.account] = e.frontier
	}
	return out
}

func (l *Ledger) FrontierCount() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return uint64(len(l.accounts))
}

type PendingBlock struct {
	Hash   string
	Source string
	Amount *big.Int
}

// Pending lists up to count receivable blocks of account in hash order.
func (l *Ledger) Pending(account string, count uint64) []PendingBlock {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]PendingBlock, 0, len(l.pending[account]))
	for hash, entry := range l.pending[account] {
		out = append(out, PendingBlock{Hash: hash, Source: entry.source, Amount: new(big.Int).Set(entry.amount)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hash < out[j].Hash })
	if count > 0 && uint64(len(out)) > count {
		out = out[:count]
	}
	return out
}

type HistoryEntry struct {
	Type    BlockType
	Account string
	Amount  *big.Int
	Hash    string
}

// History walks back from the frontier of account. The second return value is
// the hash preceding the last entry, empty when the chain is exhausted.
func (l *Ledger) History(account string, count uint64) ([]HistoryEntry, string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	state, ok := l.accounts[account]
	if !ok {
		return nil, "", ErrAccountNotFound
	}
	out := []HistoryEntry{}
	b := l.blocks[state.frontier]
	for b != nil && uint64(len(out)) < count {
		entry := HistoryEntry{Type: b.Type, Amount: new(big.Int).Set(b.Amount), Hash: b.Hash}
		switch b.Type {
		case BlockTypeSend:
			entry.Account = b.Destination
		default:
			entry.Account = b.Account
			if source, ok := l.blocks[b.Source]; ok {
				entry.Account = source.Account
			}
		}
		out = append(out, entry)
		b = l.blocks[b.Previous]
	}
	previous := ""
	if b != nil {
		previous = b.Hash
	}
	return out, previous, nil
}

// BuildSend creates a send block on top of previous without applying it.
func (l *Ledger) BuildSend(account, previous, destination string, balance, amount *big.Int) (*Block, error) {
	if balance.Cmp(amount) < 0 {
		return nil, ErrInsufficientBalance
	}
	b := &Block{
		Type:        BlockTypeSend,
		Account:     account,
		Previous:    strings.ToUpper(previous),
		Destination: destination,
		Amount:      new(big.Int).Set(amount),
		Balance:     new(big.Int).Sub(balance, amount),
	}
	b.Hash = hashBlock(b)
	return b, nil
}

// BuildReceive creates a receive block for source without applying it.
func (l *Ledger) BuildReceive(account, previous, source string) (*Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	source = strings.ToUpper(source)
	entry, ok := l.pending[account][source]
	if !ok {
		return nil, ErrNotReceivable
	}
	balance := new(big.Int)
	if state, ok := l.accounts[account]; ok {
		balance.Set(state.balance)
	}
	b := &Block{
		Type:     BlockTypeReceive,
		Account:  account,
		Previous: strings.ToUpper(previous),
		Source:   source,
		Amount:   new(big.Int).Set(entry.amount),
		Balance:  balance.Add(balance, entry.amount),
	}
	b.Hash = hashBlock(b)
	return b, nil
}

// Send appends a send block to source and makes it receivable by destination.
func (l *Ledger) Send(source, destination string, amount *big.Int) (*Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	state, ok := l.accounts[source]
	if !ok {
		return nil, ErrAccountNotFound
	}
	b, err := l.BuildSend(source, state.frontier, destination, state.balance, amount)
	if err != nil {
		return nil, err
	}
	l.apply(b)
	if l.pending[destination] == nil {
		l.pending[destination] = map[string]pendingEntry{}
	}
	l.pending[destination][b.Hash] = pendingEntry{source: source, amount: new(big.Int).Set(amount)}
	return b, nil
}

// Receive pockets the pending send block hash into account.
func (l *Ledger) Receive(account, hash string) (*Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	hash = strings.ToUpper(hash)
	entry, ok := l.pending[account][hash]
	if !ok {
		if _, exists := l.blocks[hash]; !exists {
			return nil, ErrBlockNotFound
		}
		return nil, ErrNotReceivable
	}
	b := &Block{
		Type:    BlockTypeReceive,
		Account: account,
		Source:  hash,
		Amount:  new(big.Int).Set(entry.amount),
		Balance: new(big.Int).Set(entry.amount),
	}
	if state, ok := l.accounts[account]; ok {
		b.Previous = state.frontier
		b.Balance.Add(b.Balance, state.balance)
	}
	b.Hash = hashBlock(b)
	l.apply(b)
	delete(l.pending[account], hash)
	if len(l.pending[account]) == 0 {
		delete(l.pending, account)
	}
	return b, nil
}
