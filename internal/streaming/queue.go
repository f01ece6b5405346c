package streaming

import "container/heap"

// priority orders work: near before far; near in-frustum first then by
// distance; far by distance then coarser level first.
type priority struct {
	near      bool
	inFrustum bool
	dist      int
	level     int
}

func (a priority) before(b priority) bool {
	if a.near != b.near {
		return a.near
	}
	if a.near && a.inFrustum != b.inFrustum {
		return a.inFrustum
	}
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	return a.level < b.level
}

type queueItem struct {
	key   workKey
	prio  priority
	seq   uint64
	index int
}

// workQueue is a keyed min-heap. A key appears at most once; pushing it
// again updates its priority in place.
type workQueue struct {
	items []*queueItem
	byKey map[workKey]*queueItem
	seq   uint64
}

func newWorkQueue() *workQueue {
	return &workQueue{byKey: make(map[workKey]*queueItem)}
}

func (q *workQueue) Len() int { return len(q.items) }

func (q *workQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.prio != b.prio {
		return a.prio.before(b.prio)
	}
	return a.seq < b.seq
}

func (q *workQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.items[i].index = i
	q.items[j].index = j
}

func (q *workQueue) Push(x any) {
	it := x.(*queueItem)
	it.index = len(q.items)
	q.items = append(q.items, it)
}

func (q *workQueue) Pop() any {
	old := q.items
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	q.items = old[:n-1]
	return it
}

func (q *workQueue) push(k workKey, p priority) {
	if it, ok := q.byKey[k]; ok {
		it.prio = p
		heap.Fix(q, it.index)
		return
	}
	q.seq++
	it := &queueItem{key: k, prio: p, seq: q.seq}
	q.byKey[k] = it
	heap.Push(q, it)
}

func (q *workQueue) pop() (workKey, bool) {
	if len(q.items) == 0 {
		return workKey{}, false
	}
	it := heap.Pop(q).(*queueItem)
	delete(q.byKey, it.key)
	return it.key, true
}

func (q *workQueue) remove(k workKey) {
	it, ok := q.byKey[k]
	if !ok {
		return
	}
	heap.Remove(q, it.index)
	delete(q.byKey, k)
}

func (q *workQueue) contains(k workKey) bool {
	_, ok := q.byKey[k]
	return ok
}

// reprioritize recomputes every priority; entries for which fn reports
// false are dropped.
func (q *workQueue) reprioritize(fn func(workKey) (priority, bool)) {
	kept := q.items[:0]
	for _, it := range q.items {
		p, ok := fn(it.key)
		if !ok {
			delete(q.byKey, it.key)
			continue
		}
		it.prio = p
		it.index = len(kept)
		kept = append(kept, it)
	}
	for i := len(kept); i < len(q.items); i++ {
		q.items[i] = nil
	}
	q.items = kept
	heap.Init(q)
}
