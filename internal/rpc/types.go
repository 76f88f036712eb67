package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strconv"
)

// The node renders every number as a decimal string and every empty
// list or map as "". The types below accept both forms.

var emptyString = []byte(`""`)

func isEmpty(b []byte) bool {
	b = bytes.TrimSpace(b)
	return bytes.Equal(b, emptyString) || bytes.Equal(b, []byte("null"))
}

func unquote(b []byte) string {
	b = bytes.TrimSpace(b)
	if len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			return s
		}
	}
	return string(b)
}

type Count uint64

func (c *Count) UnmarshalJSON(b []byte) error {
	if isEmpty(b) {
		*c = 0
		return nil
	}
	v, err := strconv.ParseUint(unquote(b), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid count %s: %w", b, err)
	}
	*c = Count(v)
	return nil
}

func (c Count) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(c), 10))
}

// Amount is a raw balance, which does not fit in 64 bits.
type Amount struct {
	big.Int
}

func NewAmount(s string) (Amount, error) {
	var a Amount
	if _, ok := a.SetString(s, 10); !ok {
		return a, fmt.Errorf("invalid amount %q", s)
	}
	return a, nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	if isEmpty(b) {
		a.SetInt64(0)
		return nil
	}
	s := unquote(b)
	if _, ok := a.SetString(s, 10); !ok {
		return fmt.Errorf("invalid amount %q", s)
	}
	return nil
}

func (a *Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// Slice decodes a JSON array, or "" as an empty slice.
type Slice[T any] []T

func (s *Slice[T]) UnmarshalJSON(b []byte) error {
	if isEmpty(b) {
		*s = Slice[T]{}
		return nil
	}
	var raw []T
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = raw
	return nil
}

type List = Slice[string]

// Map decodes a JSON object keyed by string, or "" as an empty map.
type Map[V any] map[string]V

func (m *Map[V]) UnmarshalJSON(b []byte) error {
	if isEmpty(b) {
		*m = Map[V]{}
		return nil
	}
	var raw map[string]V
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*m = raw
	return nil
}

type BlockCount struct {
	Count     Count `json:"count"`
	Unchecked Count `json:"unchecked"`
}

type BlockCountByType struct {
	Send    Count `json:"send"`
	Receive Count `json:"receive"`
	Open    Count `json:"open"`
	Change  Count `json:"change"`
	State   Count `json:"state"`
}

type Balance struct {
	Balance Amount `json:"balance"`
	Pending Amount `json:"pending"`
}

type AccountInfo struct {
	Frontier            string  `json:"frontier"`
	OpenBlock           string  `json:"open_block"`
	RepresentativeBlock string  `json:"representative_block"`
	Balance             Amount  `json:"balance"`
	ModifiedTimestamp   Count   `json:"modified_timestamp"`
	BlockCount          Count   `json:"block_count"`
	Pending             *Amount `json:"pending,omitempty"`
}

type HistoryEntry struct {
	Type    string `json:"type"`
	Account string `json:"account"`
	Amount  Amount `json:"amount"`
	Hash    string `json:"hash"`
}

type AccountHistory struct {
	Account  string              `json:"account"`
	History  Slice[HistoryEntry] `json:"history"`
	Previous string              `json:"previous"`
}

type KeyPair struct {
	Private string `json:"private"`
	Public  string `json:"public"`
	Account string `json:"account"`
}

type PendingBlock struct {
	Amount Amount `json:"amount"`
	Source string `json:"source,omitempty"`
}

// PendingBlocks are the receivable blocks of one account, keyed by hash.
// The node sends a plain list of hashes, a hash to amount map, or a hash to
// {amount, source} map depending on the request flags.
type PendingBlocks map[string]PendingBlock

func (p *PendingBlocks) UnmarshalJSON(b []byte) error {
	out := PendingBlocks{}
	*p = out
	if isEmpty(b) {
		return nil
	}

	var hashes []string
	if err := json.Unmarshal(b, &hashes); err == nil {
		for _, h := range hashes {
			out[h] = PendingBlock{}
		}
		return nil
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(b, &entries); err != nil {
		return fmt.Errorf("invalid pending blocks: %w", err)
	}
	for hash, raw := range entries {
		var block PendingBlock
		if err := json.Unmarshal(raw, &block); err != nil {
			if err := block.Amount.UnmarshalJSON(raw); err != nil {
				return fmt.Errorf("invalid pending block %s: %w", hash, err)
			}
		}
		out[hash] = block
	}
	return nil
}

// Hashes returns the pending block hashes in sorted order.
func (p PendingBlocks) Hashes() []string {
	hashes := make([]string, 0, len(p))
	for h := range p {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)
	return hashes
}

// RawBlock is a block as the node serializes it, either a JSON object or a
// string holding one.
type RawBlock = json.RawMessage

type CreatedBlock struct {
	Hash  string          `json:"hash"`
	Block json.RawMessage `json:"block"`
}
