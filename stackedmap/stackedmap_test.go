// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vechain/forkstate/stackedmap"
)

func M(a ...any) []any {
	return a
}

func srcOf(src map[string]string) stackedmap.MapGetter[string, string] {
	return func(key string) (string, bool, error) {
		v, r := src[key]
		return v, r, nil
	}
}

func TestStackedMap(t *testing.T) {
	assert := assert.New(t)
	sm := stackedmap.New(srcOf(map[string]string{"foo": "bar"}))

	tests := []struct {
		f         func()
		depth     int
		putKey    string
		putValue  string
		getKey    string
		getReturn []any
	}{
		{func() {}, 1, "", "", "foo", []any{"bar", true, nil}},
		{func() { sm.Push() }, 2, "foo", "baz", "foo", []any{"baz", true, nil}},
		{func() {}, 2, "foo", "baz1", "foo", []any{"baz1", true, nil}},
		{func() { sm.Push() }, 3, "foo", "qux", "foo", []any{"qux", true, nil}},
		{func() { sm.Pop() }, 2, "", "", "foo", []any{"baz1", true, nil}},
		{func() { sm.Pop() }, 1, "", "", "foo", []any{"bar", true, nil}},

		{func() { sm.Push(); sm.Push() }, 3, "", "", "", nil},
		{func() { sm.PopTo(0) }, 0, "", "", "", nil},
	}

	for _, test := range tests {
		test.f()
		assert.Equal(test.depth, sm.Depth())
		if test.putKey != "" {
			sm.Put(test.putKey, test.putValue)
		}
		if test.getKey != "" {
			assert.Equal(test.getReturn, M(sm.Get(test.getKey)))
		}
	}
}

func TestStackedMapMerge(t *testing.T) {
	assert := assert.New(t)
	sm := stackedmap.New(srcOf(map[string]string{"foo": "bar"}))

	sm.Push()
	sm.Put("foo", "baz")
	sm.Push()
	sm.Put("foo", "qux")
	sm.Put("new", "v")

	sm.Merge()
	assert.Equal(2, sm.Depth())
	assert.Equal([]any{"qux", true, nil}, M(sm.Get("foo")))
	assert.Equal([]any{"v", true, nil}, M(sm.Get("new")))

	// merged values revert with the enclosing level
	sm.Pop()
	assert.Equal([]any{"bar", true, nil}, M(sm.Get("foo")))
	assert.Equal([]any{"", false, nil}, M(sm.Get("new")))

	assert.Panics(func() { sm.Merge() })
}

func TestStackedMapCopy(t *testing.T) {
	assert := assert.New(t)
	sm := stackedmap.New(srcOf(nil))
	sm.Put("a", "1")
	sm.Push()
	sm.Put("b", "2")

	cpy := sm.Copy(srcOf(nil))
	cpy.Put("a", "changed")
	cpy.Pop()

	assert.Equal(2, sm.Depth())
	assert.Equal([]any{"1", true, nil}, M(sm.Get("a")))
	assert.Equal([]any{"2", true, nil}, M(sm.Get("b")))

	assert.Equal(1, cpy.Depth())
	assert.Equal([]any{"1", true, nil}, M(cpy.Get("a")))
	assert.Equal([]any{"", false, nil}, M(cpy.Get("b")))
}

func TestStackedMapPuts(t *testing.T) {
	assert := assert.New(t)
	sm := stackedmap.New(func(key string) (string, bool, error) {
		return "", false, nil
	})

	kvs := []struct {
		k, v string
	}{
		{"a", "b"},
		{"a", "b"},
		{"a1", "b1"},
		{"a2", "b2"},
		{"a3", "b3"},
		{"a4", "b4"},
	}

	for _, kv := range kvs {
		sm.Push()
		sm.Put(kv.k, kv.v)
	}
	i := 0
	sm.Journal(func(k, v string) bool {
		assert.Equal(kvs[i].k, k)
		assert.Equal(kvs[i].v, v)
		i++
		return true
	})
	assert.Equal(len(kvs), i)

	i = 0
	sm.Journal(func(k, v string) bool {
		i++
		return false
	})
	assert.Equal(1, i, "Journal traverse should abort")
}
