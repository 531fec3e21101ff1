// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap

import "maps"

// StackedMap maintains maps in a stack.
// Each map inherits key/value of map that is at lower level.
// It acts as a map with save-restore/snapshot-revert manner.
type StackedMap[K comparable, V any] struct {
	src       MapGetter[K, V]
	levels    []*level[K, V]
	revisions map[K][]int
}

type level[K comparable, V any] struct {
	kvs     map[K]V
	journal []journalEntry[K, V]
}

type journalEntry[K comparable, V any] struct {
	key   K
	value V
}

func newLevel[K comparable, V any]() *level[K, V] {
	return &level[K, V]{kvs: make(map[K]V)}
}

// MapGetter defines getter method of map.
type MapGetter[K comparable, V any] func(key K) (value V, exist bool, err error)

// New create an instance of StackedMap with one base level pushed.
// src acts as source of data.
func New[K comparable, V any](src MapGetter[K, V]) *StackedMap[K, V] {
	sm := &StackedMap[K, V]{
		src:       src,
		revisions: make(map[K][]int),
	}
	sm.Push()
	return sm
}

// Depth returns depth of stack.
func (sm *StackedMap[K, V]) Depth() int {
	return len(sm.levels)
}

// Push pushes a new map on stack.
// It returns stack depth before push.
func (sm *StackedMap[K, V]) Push() int {
	sm.levels = append(sm.levels, newLevel[K, V]())
	return len(sm.levels) - 1
}

// Pop pops the map at top of stack, reverting all Put operations since
// the last Push.
func (sm *StackedMap[K, V]) Pop() {
	top := sm.levels[len(sm.levels)-1]
	for key := range top.kvs {
		sm.dropRevision(key)
	}
	sm.levels = sm.levels[:len(sm.levels)-1]
}

// PopTo pops maps until stack depth reaches depth.
func (sm *StackedMap[K, V]) PopTo(depth int) {
	for len(sm.levels) > depth {
		sm.Pop()
	}
}

// Merge folds the map at top of stack into the one below it and pops it.
// Values put since the last Push stay visible. It panics if fewer than two
// levels are on the stack.
func (sm *StackedMap[K, V]) Merge() {
	n := len(sm.levels)
	if n < 2 {
		panic("stackedmap: merge without an enclosing level")
	}
	top, below := sm.levels[n-1], sm.levels[n-2]
	for key, value := range top.kvs {
		sm.dropRevision(key)
		if _, ok := below.kvs[key]; !ok {
			sm.revisions[key] = append(sm.revisions[key], n-2)
		}
		below.kvs[key] = value
	}
	below.journal = append(below.journal, top.journal...)
	sm.levels = sm.levels[:n-1]
}

func (sm *StackedMap[K, V]) dropRevision(key K) {
	revs := sm.revisions[key]
	revs = revs[:len(revs)-1]
	if len(revs) == 0 {
		delete(sm.revisions, key)
	} else {
		sm.revisions[key] = revs
	}
}

// Get gets value for given key.
// The second return value indicates whether the given key is found.
func (sm *StackedMap[K, V]) Get(key K) (V, bool, error) {
	if revs, ok := sm.revisions[key]; ok {
		return sm.levels[revs[len(revs)-1]].kvs[key], true, nil
	}
	return sm.src(key)
}

// Put puts key value into map at stack top.
// It will panic if stack is empty.
func (sm *StackedMap[K, V]) Put(key K, value V) {
	rev := len(sm.levels) - 1
	top := sm.levels[rev]
	if _, ok := top.kvs[key]; !ok {
		sm.revisions[key] = append(sm.revisions[key], rev)
	}
	top.kvs[key] = value
	top.journal = append(top.journal, journalEntry[K, V]{key, value})
}

// Journal traverses journal of all Put operations, oldest first, until cb returns false.
func (sm *StackedMap[K, V]) Journal(cb func(key K, value V) bool) {
	for _, lvl := range sm.levels {
		for _, e := range lvl.journal {
			if !cb(e.key, e.value) {
				return
			}
		}
	}
}

// Copy returns an independent stacked map with the same levels and a new
// source. Values are copied shallowly.
func (sm *StackedMap[K, V]) Copy(src MapGetter[K, V]) *StackedMap[K, V] {
	cpy := &StackedMap[K, V]{
		src:       src,
		levels:    make([]*level[K, V], 0, len(sm.levels)),
		revisions: make(map[K][]int, len(sm.revisions)),
	}
	for _, lvl := range sm.levels {
		cpy.levels = append(cpy.levels, &level[K, V]{
			kvs:     maps.Clone(lvl.kvs),
			journal: append([]journalEntry[K, V](nil), lvl.journal...),
		})
	}
	for k, revs := range sm.revisions {
		cpy.revisions[k] = append([]int(nil), revs...)
	}
	return cpy
}
