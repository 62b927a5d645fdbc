package neighbors

import (
	"container/heap"
	"context"
	"math"
	"math/rand"
	"runtime"
	"sync"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/diffmap/distance"
)

// ANNParams represents the construction and query parameters of the
// approximate provider. They are forwarded opaquely by the pipeline.
type ANNParams struct {
	// M specifies the number of established connections for every new
	// element during construction. Higher M works better on datasets
	// with high intrinsic dimensionality and/or high recall targets.
	M int

	// EFConstruction specifies the size of the dynamic candidate list
	// while building the graph. Larger values improve graph quality at
	// the cost of indexing time.
	EFConstruction int

	// EFSearch specifies the size of the dynamic candidate list during
	// queries. Larger values improve recall at the cost of search time.
	EFSearch int

	// Heuristic selects the neighbor-selection heuristic from the HNSW
	// paper instead of naive closest-first pruning.
	Heuristic bool

	// Seed feeds level generation. A fixed seed keeps graph construction
	// reproducible for a given insertion order.
	Seed int64

	// Jobs bounds the worker pool used for parallel queries.
	Jobs int
}

// DefaultANNParams mirrors the construction defaults of the reference
// implementation this provider was modeled on.
var DefaultANNParams = ANNParams{
	M:              30,
	EFConstruction: 100,
	EFSearch:       100,
	Heuristic:      true,
	Seed:           1,
}

// hnswNode is a node in the HNSW graph.
type hnswNode struct {
	connections [][]int
	vector      []float64
	layer       int
	id          int
}

// HNSW is an approximate nearest-neighbor provider backed by a
// hierarchical navigable small world graph.
type HNSW struct {
	metric distance.Metric
	fn     distance.Func
	params ANNParams

	mmax     int     // max connections per element per layer
	mmax0    int     // max for the 0 layer
	ml       float64 // normalization factor for level generation
	ep       int     // entry point into the top layer
	maxLevel int

	nodes []*hnswNode
	rng   *rand.Rand

	mutex sync.Mutex
}

// NewHNSW creates an approximate provider for the given metric.
func NewHNSW(metric distance.Metric, optFns ...func(p *ANNParams)) (*HNSW, error) {
	params := DefaultANNParams
	params.Jobs = runtime.GOMAXPROCS(0)

	for _, fn := range optFns {
		fn(&params)
	}

	if params.M < 2 {
		// M == 1 would make the level normalization 1/log(M) divide by zero.
		params.M = 2
	}
	if params.Jobs < 1 {
		params.Jobs = 1
	}

	fn, err := distance.Provider(metric)
	if err != nil {
		return nil, err
	}

	return &HNSW{
		metric: metric,
		fn:     fn,
		params: params,
		mmax:   params.M,
		mmax0:  2 * params.M,
		ml:     1 / math.Log(float64(params.M)),
		rng:    rand.New(rand.NewSource(params.Seed)),
	}, nil
}

// KNNGraph indexes the sample set and queries every row for its k
// nearest neighbors. Indexing is sequential; queries run on a worker
// pool and are safe for concurrent use. Each call indexes from scratch,
// so one provider may serve any number of independent sample sets.
func (h *HNSW) KNNGraph(ctx context.Context, data [][]float64, k int) (*Graph, error) {
	n := len(data)
	if n <= k {
		return nil, &ErrTooFewSamples{Samples: n, K: k}
	}

	h.reset()

	for i := range data {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h.insert(data[i])
	}

	g := &Graph{
		K:    k,
		Rows: make([][]Edge, n),
	}

	// One extra candidate is requested so the self match can be dropped.
	ef := h.params.EFSearch
	if ef < k+1 {
		ef = k + 1
	}

	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(h.params.Jobs)

	for i := 0; i < n; i++ {
		i := i
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			top := h.knnSearch(data[i], k+1, ef)
			g.Rows[i] = trimSelf(top.drain(), i, k)
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return nil, err
	}

	return g, nil
}

// reset discards the indexed graph. Level generation restarts from the
// configured seed so repeated calls on identical data build identical
// graphs.
func (h *HNSW) reset() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.nodes = nil
	h.ep = 0
	h.maxLevel = 0
	h.rng = rand.New(rand.NewSource(h.params.Seed))
}

// insert adds a vector to the graph, linking it into every layer at or
// below its generated level.
func (h *HNSW) insert(v []float64) int {
	vectorCopy := make([]float64, len(v))
	copy(vectorCopy, v)

	h.mutex.Lock()
	defer h.mutex.Unlock()

	id := len(h.nodes)

	node := &hnswNode{
		id:     id,
		vector: vectorCopy,
		layer:  int(math.Floor(-math.Log(h.rng.Float64()) * h.ml)),
	}
	node.connections = make([][]int, max(node.layer, h.mmax)+1)

	if id == 0 {
		// First element becomes the entry point.
		h.nodes = append(h.nodes, node)
		h.ep = 0
		h.maxLevel = node.layer
		return id
	}

	// Greedy descent through the layers above the node's level gives the
	// starting point for candidate search.
	currObj, currDist := h.findShortestPath(node)

	topCandidates := &priorityQueue{Order: false}

	for level := min(node.layer, h.maxLevel); level >= 0; level-- {
		h.searchLayer(vectorCopy, &priorityQueueItem{Distance: currDist, Node: currObj.id}, topCandidates, h.params.EFConstruction, level)

		if h.params.Heuristic {
			h.selectNeighboursHeuristic(topCandidates, h.params.M, false)
		} else {
			h.selectNeighboursSimple(topCandidates, h.params.M)
		}

		node.connections[level] = make([]int, topCandidates.Len())

		for i := topCandidates.Len() - 1; i >= 0; i-- {
			candidate, _ := heap.Pop(topCandidates).(*priorityQueueItem)
			node.connections[level][i] = candidate.Node
		}
	}

	h.nodes = append(h.nodes, node)

	// Link the neighbour nodes back, making the new node visible.
	for level := min(node.layer, h.maxLevel); level >= 0; level-- {
		for _, neighbour := range node.connections[level] {
			h.link(neighbour, node.id, level)
		}
	}

	if node.layer > h.maxLevel {
		h.ep = node.id
		h.maxLevel = node.layer
	}

	return id
}

func (h *HNSW) findShortestPath(node *hnswNode) (*hnswNode, float64) {
	currObj := h.nodes[h.ep]
	currDist := h.fn(currObj.vector, node.vector)

	for level := currObj.layer; level > node.layer; level-- {
		changed := true
		for changed {
			changed = false

			for _, id := range currObj.connections[level] {
				newObj := h.nodes[id]

				newDist := h.fn(newObj.vector, node.vector)
				if newDist < currDist {
					currObj = newObj
					currDist = newDist
					changed = true
				}
			}
		}
	}

	return currObj, currDist
}

// knnSearch returns a max-heap with the (approximately) nearest k nodes.
func (h *HNSW) knnSearch(q []float64, k, ef int) *priorityQueue {
	topCandidates := &priorityQueue{Order: true}
	heap.Init(topCandidates)

	ep, epDist := h.findEp(q)

	h.searchLayer(q, &priorityQueueItem{Distance: epDist, Node: ep}, topCandidates, ef, 0)

	for topCandidates.Len() > k {
		_ = heap.Pop(topCandidates)
	}

	return topCandidates
}

// findEp descends the upper layers greedily to locate the entry point
// for the bottom-layer search.
func (h *HNSW) findEp(q []float64) (int, float64) {
	currObj := h.nodes[h.ep]
	currDist := h.fn(q, currObj.vector)

	for level := h.maxLevel; level > 0; level-- {
		scan := true
		for scan {
			scan = false

			if level >= len(currObj.connections) {
				continue
			}

			for _, id := range currObj.connections[level] {
				nodeDist := h.fn(h.nodes[id].vector, q)
				if nodeDist < currDist {
					currObj = h.nodes[id]
					currDist = nodeDist
					scan = true
				}
			}
		}
	}

	return currObj.id, currDist
}

// searchLayer performs a best-first search in one layer of the graph.
func (h *HNSW) searchLayer(q []float64, ep *priorityQueueItem, topCandidates *priorityQueue, ef, level int) {
	var visited bitset.BitSet
	visited.Set(uint(ep.Node))

	candidates := &priorityQueue{Order: false}
	heap.Init(candidates)
	heap.Push(candidates, &priorityQueueItem{Distance: ep.Distance, Node: ep.Node})

	topCandidates.Order = true
	heap.Init(topCandidates)
	heap.Push(topCandidates, &priorityQueueItem{Distance: ep.Distance, Node: ep.Node})

	for candidates.Len() > 0 {
		lowerBound := topCandidates.Top().Distance

		candidate, _ := heap.Pop(candidates).(*priorityQueueItem)
		if candidate.Distance > lowerBound {
			break
		}

		node := h.nodes[candidate.Node]

		if level >= len(node.connections) {
			continue
		}

		for _, id := range node.connections[level] {
			if visited.Test(uint(id)) {
				continue
			}
			visited.Set(uint(id))

			d := h.fn(q, h.nodes[id].vector)

			item := &priorityQueueItem{Distance: d, Node: id}

			if topCandidates.Len() < ef {
				heap.Push(topCandidates, item)
				heap.Push(candidates, &priorityQueueItem{Distance: d, Node: id})
			} else if topCandidates.Top().Distance > d {
				heap.Pop(topCandidates)
				heap.Push(topCandidates, item)
				heap.Push(candidates, &priorityQueueItem{Distance: d, Node: id})
			}
		}
	}
}

// link connects two nodes on a level, pruning back to the connection
// budget when the neighbour list overflows.
func (h *HNSW) link(first, second, level int) {
	maxConnections := h.mmax
	if level == 0 {
		// HNSW allows double the connections for the bottom layer.
		maxConnections = h.mmax0
	}

	node := h.nodes[first]
	if level >= len(node.connections) {
		grown := make([][]int, level+1)
		copy(grown, node.connections)
		node.connections = grown
	}
	node.connections[level] = append(node.connections[level], second)

	if len(node.connections[level]) <= maxConnections {
		return
	}

	topCandidates := &priorityQueue{Order: false}
	heap.Init(topCandidates)

	for _, id := range node.connections[level] {
		heap.Push(topCandidates, &priorityQueueItem{Node: id, Distance: h.fn(node.vector, h.nodes[id].vector)})
	}

	if h.params.Heuristic {
		h.selectNeighboursHeuristic(topCandidates, maxConnections, true)
	} else {
		h.selectNeighboursSimple(topCandidates, maxConnections)
	}

	node.connections[level] = make([]int, maxConnections)

	for i := maxConnections - 1; i >= 0; i-- {
		item, _ := heap.Pop(topCandidates).(*priorityQueueItem)
		node.connections[level][i] = item.Node
	}
}

// selectNeighboursSimple keeps the M closest candidates.
func (h *HNSW) selectNeighboursSimple(topCandidates *priorityQueue, m int) {
	for topCandidates.Len() > m {
		_ = heap.Pop(topCandidates)
	}
}

// selectNeighboursHeuristic keeps candidates that are closer to the base
// node than to any already kept candidate, which preserves connectivity
// across sparse regions better than plain distance pruning.
func (h *HNSW) selectNeighboursHeuristic(topCandidates *priorityQueue, m int, order bool) {
	if topCandidates.Len() < m {
		return
	}

	newCandidates := &priorityQueue{}

	tmpCandidates := &priorityQueue{Order: order}
	heap.Init(tmpCandidates)

	items := make([]*priorityQueueItem, 0, m)

	if !order {
		newCandidates.Order = order
		heap.Init(newCandidates)

		for topCandidates.Len() > 0 {
			item, _ := heap.Pop(topCandidates).(*priorityQueueItem)
			heap.Push(newCandidates, item)
		}
	} else {
		newCandidates = topCandidates
	}

	for newCandidates.Len() > 0 {
		if len(items) >= m {
			break
		}

		item, _ := heap.Pop(newCandidates).(*priorityQueueItem)
		hit := true

		for _, v := range items {
			if h.fn(h.nodes[v.Node].vector, h.nodes[item.Node].vector) < item.Distance {
				hit = false
				break
			}
		}

		if hit {
			items = append(items, item)
		} else {
			heap.Push(tmpCandidates, item)
		}
	}

	for len(items) < m && tmpCandidates.Len() > 0 {
		item, _ := heap.Pop(tmpCandidates).(*priorityQueueItem)
		items = append(items, item)
	}

	for _, item := range items {
		heap.Push(topCandidates, item)
	}
}
