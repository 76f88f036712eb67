package devnode

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/USA-RedDragon/germ-rpctest/internal/keys"
)

type walletKey struct {
	private       keys.PrivateKey
	deterministic bool
}

// Wallet holds private keys in insertion order. Deterministic keys are derived
// from seed at increasing indexes.
type Wallet struct {
	mu       sync.Mutex
	seed     [32]byte
	index    uint32
	keys     map[string]walletKey
	accounts []string
}

func newWalletID() (string, error) {
	var id [32]byte
	if _, err := rand.Read(id[:]); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(id[:])), nil
}

func newWallet() (*Wallet, error) {
	seed, err := keys.GenerateKey()
	if err != nil {
		return nil, err
	}
	return &Wallet{seed: seed, keys: map[string]walletKey{}}, nil
}

func (w *Wallet) insertLocked(private keys.PrivateKey, deterministic bool) string {
	account := private.Public().Account()
	if _, ok := w.keys[account]; !ok {
		w.accounts = append(w.accounts, account)
	}
	w.keys[account] = walletKey{private: private, deterministic: deterministic}
	return account
}

func (w *Wallet) Insert(private keys.PrivateKey) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.insertLocked(private, false)
}

func (w *Wallet) createLocked() string {
	private := keys.DeterministicKey(w.seed, w.index)
	w.index++
	return w.insertLocked(private, true)
}

// CreateAccounts derives count new deterministic accounts.
func (w *Wallet) CreateAccounts(count uint64) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, count)
	for i := uint64(0); i < count; i++ {
		out = append(out, w.createLocked())
	}
	return out
}

// ChangeSeed drops every deterministic key, then restores index 0 of the new seed.
func (w *Wallet) ChangeSeed(seed [32]byte) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	kept := w.accounts[:0]
	for _, account := range w.accounts {
		if w.keys[account].deterministic {
			delete(w.keys, account)
			continue
		}
		kept = append(kept, account)
	}
	w.accounts = kept
	w.seed = seed
	w.index = 0
	return w.createLocked()
}

func (w *Wallet) Accounts() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.accounts...)
}

func (w *Wallet) Contains(account string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.keys[account]
	return ok
}
