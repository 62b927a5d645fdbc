package neighbors

import "container/heap"

// Compile time check to ensure priorityQueue satisfies the heap interface.
var _ heap.Interface = (*priorityQueue)(nil)

// priorityQueueItem represents a candidate neighbor in the queue.
type priorityQueueItem struct {
	Node     int
	Distance float64
	Index    int // maintained by the heap.Interface methods
}

// priorityQueue implements heap.Interface over candidate neighbors.
// With Order set it behaves as a max-heap on distance, otherwise as a
// min-heap.
type priorityQueue struct {
	Order bool
	Items []*priorityQueueItem
}

func (pq *priorityQueue) Len() int { return len(pq.Items) }

func (pq *priorityQueue) Less(i, j int) bool {
	if !pq.Order {
		return pq.Items[i].Distance < pq.Items[j].Distance
	}
	return pq.Items[i].Distance > pq.Items[j].Distance
}

func (pq *priorityQueue) Swap(i, j int) {
	pq.Items[i], pq.Items[j] = pq.Items[j], pq.Items[i]
	pq.Items[i].Index, pq.Items[j].Index = i, j
}

func (pq *priorityQueue) Push(x any) {
	item, _ := x.(*priorityQueueItem)
	item.Index = len(pq.Items)
	pq.Items = append(pq.Items, item)
}

func (pq *priorityQueue) Pop() any {
	old := pq.Items
	n := len(old)
	if n == 0 {
		return nil
	}

	item := old[n-1]
	old[n-1] = nil // avoid memory leak
	item.Index = -1
	pq.Items = old[:n-1]

	return item
}

// Top returns the top element without removing it.
func (pq *priorityQueue) Top() *priorityQueueItem {
	return pq.Items[0]
}

// drain pops all items and returns them ordered by ascending distance.
// The queue must be a max-heap (Order true).
func (pq *priorityQueue) drain() []*priorityQueueItem {
	items := make([]*priorityQueueItem, pq.Len())
	for i := pq.Len() - 1; i >= 0; i-- {
		items[i], _ = heap.Pop(pq).(*priorityQueueItem)
	}
	return items
}
