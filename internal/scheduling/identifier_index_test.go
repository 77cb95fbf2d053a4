package scheduling

import (
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchPrefixCourseCodes(t *testing.T) {
	trie := NewIdentifierIndex[string]()
	trie.Insert("CS101", "C1")
	trie.Insert("CS102", "C2")
	trie.Insert("MATH201", "C3")

	assert.ElementsMatch(t, []string{"CS101", "CS102"}, trie.SearchPrefix("CS", 0))
	assert.ElementsMatch(t, []string{"CS101", "CS102"}, trie.SearchPrefix("cs1", 0))
	assert.Equal(t, []string{"MATH201"}, trie.SearchPrefix("math201", 0))
	assert.Empty(t, trie.SearchPrefix("PHY", 0))
	assert.Empty(t, trie.SearchPrefix("", 0))
	assert.Empty(t, trie.SearchPrefix("   ", 0))
}

func TestSearchPrefixOrderAndLimit(t *testing.T) {
	trie := NewIdentifierIndex[int]()
	for i, key := range []string{"R10", "R2", "R1", "R100", "101A"} {
		trie.Insert(key, i)
	}

	assert.Equal(t, []string{"R1", "R10", "R100", "R2"}, trie.SearchPrefix("r", 0))
	assert.Equal(t, []string{"R1", "R10"}, trie.SearchPrefix("r", 2))
	assert.Equal(t, []string{"101A"}, trie.SearchPrefix("101a", 5))
}

func TestInsertIsIdempotentPerKey(t *testing.T) {
	trie := NewIdentifierIndex[string]()
	trie.Insert("cs701", "old")
	trie.Insert("CS701", "new")

	assert.Equal(t, 1, trie.Len())
	ref, ok := trie.Lookup("Cs701")
	require.True(t, ok)
	assert.Equal(t, "new", ref)
	assert.Equal(t, []string{"CS701"}, trie.SearchPrefix("c", 0))

	_, ok = trie.Lookup("CS70")
	assert.False(t, ok)

	trie.Reset()
	assert.Zero(t, trie.Len())
	assert.Empty(t, trie.SearchPrefix("CS", 0))
}

func TestSearchPrefixMatchesBruteForce(t *testing.T) {
	trie := NewIdentifierIndex[int]()
	rng := rand.New(rand.NewSource(11))
	alphabet := []rune("aAbBcC012")
	randomKey := func(maxLen int) string {
		n := 1 + rng.Intn(maxLen)
		key := make([]rune, n)
		for i := range key {
			key[i] = alphabet[rng.Intn(len(alphabet))]
		}
		return string(key)
	}

	displays := make(map[string]string)
	for i := 0; i < 300; i++ {
		key := randomKey(5)
		trie.Insert(key, i)
		displays[strings.ToUpper(key)] = key
	}
	require.Equal(t, len(displays), trie.Len())

	for i := 0; i < 200; i++ {
		prefix := randomKey(3)
		folded := make([]string, 0)
		for k := range displays {
			if strings.HasPrefix(k, strings.ToUpper(prefix)) {
				folded = append(folded, k)
			}
		}
		sort.Strings(folded)
		want := make([]string, len(folded))
		for j, k := range folded {
			want[j] = displays[k]
		}

		assert.Equal(t, want, trie.SearchPrefix(prefix, 0), "prefix %q", prefix)
		if len(want) > 2 {
			assert.Equal(t, want[:2], trie.SearchPrefix(prefix, 2), "prefix %q", prefix)
		}
	}
}
