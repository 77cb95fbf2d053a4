package scheduling

import (
	"sort"
	"strings"
	"sync"
)

type trieNode[T any] struct {
	children map[rune]*trieNode[T]
	terminal bool
	display  string
	ref      T
}

func newTrieNode[T any]() *trieNode[T] {
	return &trieNode[T]{children: make(map[rune]*trieNode[T])}
}

// IdentifierIndex is a case-insensitive prefix trie mapping identifiers such as
// course codes or room numbers to a display string and a record reference.
type IdentifierIndex[T any] struct {
	mu   sync.RWMutex
	root *trieNode[T]
	size int
}

// NewIdentifierIndex returns an empty trie.
func NewIdentifierIndex[T any]() *IdentifierIndex[T] {
	return &IdentifierIndex[T]{root: newTrieNode[T]()}
}

func foldKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// Insert stores key with ref. Re-inserting an existing key replaces its display and ref.
func (t *IdentifierIndex[T]) Insert(key string, ref T) {
	folded := foldKey(key)
	if folded == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.root
	for _, r := range folded {
		child, ok := n.children[r]
		if !ok {
			child = newTrieNode[T]()
			n.children[r] = child
		}
		n = child
	}
	if !n.terminal {
		t.size++
	}
	n.terminal = true
	n.display = strings.TrimSpace(key)
	n.ref = ref
}

// SearchPrefix returns display strings of keys starting with prefix, ordered by folded
// key. An empty prefix yields no results; limit <= 0 means unbounded.
func (t *IdentifierIndex[T]) SearchPrefix(prefix string, limit int) []string {
	result := make([]string, 0)
	folded := foldKey(prefix)
	if folded == "" {
		return result
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := t.descend(folded)
	if n == nil {
		return result
	}
	collect(n, func(match *trieNode[T]) bool {
		result = append(result, match.display)
		return limit <= 0 || len(result) < limit
	})
	return result
}

// Lookup returns the reference stored under key.
func (t *IdentifierIndex[T]) Lookup(key string) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := t.descend(foldKey(key))
	if n == nil || !n.terminal {
		var zero T
		return zero, false
	}
	return n.ref, true
}

// Len returns the number of distinct keys.
func (t *IdentifierIndex[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.size
}

// Reset drops every key.
func (t *IdentifierIndex[T]) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.root = newTrieNode[T]()
	t.size = 0
}

func (t *IdentifierIndex[T]) descend(folded string) *trieNode[T] {
	if folded == "" {
		return nil
	}
	n := t.root
	for _, r := range folded {
		n = n.children[r]
		if n == nil {
			return nil
		}
	}
	return n
}

// collect walks n depth-first in rune order until visit returns false.
func collect[T any](n *trieNode[T], visit func(*trieNode[T]) bool) bool {
	if n.terminal && !visit(n) {
		return false
	}
	keys := make([]rune, 0, len(n.children))
	for r := range n.children {
		keys = append(keys, r)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, r := range keys {
		if !collect(n.children[r], visit) {
			return false
		}
	}
	return true
}
