package accel

import (
	"math"
	"sort"

	"github.com/arvoss/go-pathtracer/pkg/core"
)

// useSingleItemOpt stores a leaf's only item index directly in the node,
// skipping the shared index buffer.
const useSingleItemOpt = true

const (
	kdtreeFlagAxisX = 0
	kdtreeFlagAxisY = 1
	kdtreeFlagAxisZ = 2
	kdtreeFlagLeaf  = 3
	kdtreeFlagBits  = 2
	kdtreeFlagMask  = (1 << kdtreeFlagBits) - 1
)

// indexedKdtreeNode is one compact node record of two union-packed words.
//
// word1: split position bits (inner), or a single item index / an offset into
// the shared index buffer (leaf).
// word2: low two bits are flags (00/01/10 = inner with split axis X/Y/Z,
// 11 = leaf); the upper bits hold the right-child index (inner) or the item
// count (leaf).
type indexedKdtreeNode struct {
	word1 uint64
	word2 uint64
}

func makeInnerNode(splitAxis int, splitPos float64, rightChildIndex int) indexedKdtreeNode {
	return indexedKdtreeNode{
		word1: math.Float64bits(splitPos),
		word2: uint64(rightChildIndex)<<kdtreeFlagBits | uint64(splitAxis),
	}
}

// makeLeafNode encodes the given items, appending to the shared index buffer
// when the single-item optimization does not apply
func makeLeafNode(items []int, indexBuffer *[]int) indexedKdtreeNode {
	node := indexedKdtreeNode{
		word2: uint64(len(items))<<kdtreeFlagBits | kdtreeFlagLeaf,
	}
	if useSingleItemOpt && len(items) == 1 {
		node.word1 = uint64(items[0])
		return node
	}
	node.word1 = uint64(len(*indexBuffer))
	*indexBuffer = append(*indexBuffer, items...)
	return node
}

func (n indexedKdtreeNode) isLeaf() bool {
	return n.word2&kdtreeFlagMask == kdtreeFlagLeaf
}

func (n indexedKdtreeNode) splitAxis() int {
	return int(n.word2 & kdtreeFlagMask)
}

func (n indexedKdtreeNode) splitPos() float64 {
	return math.Float64frombits(n.word1)
}

func (n indexedKdtreeNode) rightChildIndex() int {
	return int(n.word2 >> kdtreeFlagBits)
}

func (n indexedKdtreeNode) numItems() int {
	return int(n.word2 >> kdtreeFlagBits)
}

func (n indexedKdtreeNode) singleItemDirectIndex() int {
	return int(n.word1)
}

func (n indexedKdtreeNode) itemIndexOffset() int {
	return int(n.word1)
}

// IndexedKdtreeParams tunes the build
type IndexedKdtreeParams struct {
	MaxDepth        int
	MinItemsPerLeaf int
}

// DefaultIndexedKdtreeParams returns build parameters that work well for
// typical scenes
func DefaultIndexedKdtreeParams() IndexedKdtreeParams {
	return IndexedKdtreeParams{MaxDepth: 32, MinItemsPerLeaf: 2}
}

// IndexedKdtree is a kd-tree over primitives with compact two-word nodes and
// a shared item index buffer.
type IndexedKdtree struct {
	primitives  []core.Primitive
	nodes       []indexedKdtreeNode
	indexBuffer []int
	bound       core.AABB
	params      IndexedKdtreeParams
}

// NewIndexedKdtree builds a kd-tree over the given primitives. An empty build
// yields a root that is an empty leaf.
func NewIndexedKdtree(primitives []core.Primitive, params IndexedKdtreeParams) *IndexedKdtree {
	tree := &IndexedKdtree{primitives: primitives, params: params}

	if len(primitives) == 0 {
		tree.bound = core.EmptyAABB()
		tree.nodes = append(tree.nodes, makeLeafNode(nil, &tree.indexBuffer))
		return tree
	}

	bounds := make([]core.AABB, len(primitives))
	tree.bound = core.EmptyAABB()
	items := make([]int, len(primitives))
	for i, prim := range primitives {
		bounds[i] = prim.CalcAABB()
		tree.bound = tree.bound.Union(bounds[i])
		items[i] = i
	}

	tree.buildRecursive(items, tree.bound, bounds, 0)
	return tree
}

// buildRecursive appends the subtree for the given items and returns its node
// index
func (t *IndexedKdtree) buildRecursive(items []int, bound core.AABB, bounds []core.AABB, depth int) int {
	nodeIndex := len(t.nodes)

	if depth >= t.params.MaxDepth || len(items) <= t.params.MinItemsPerLeaf {
		t.nodes = append(t.nodes, makeLeafNode(items, &t.indexBuffer))
		return nodeIndex
	}

	axis := bound.LongestAxis()
	splitPos, ok := t.chooseSplit(items, axis, bounds)
	if !ok {
		t.nodes = append(t.nodes, makeLeafNode(items, &t.indexBuffer))
		return nodeIndex
	}

	var leftItems, rightItems []int
	for _, item := range items {
		if bounds[item].Min.Component(axis) < splitPos {
			leftItems = append(leftItems, item)
		}
		if bounds[item].Max.Component(axis) >= splitPos {
			rightItems = append(rightItems, item)
		}
	}
	if len(leftItems) == len(items) && len(rightItems) == len(items) {
		// Everything straddles; splitting would only duplicate
		t.nodes = append(t.nodes, makeLeafNode(items, &t.indexBuffer))
		return nodeIndex
	}

	leftBound := bound
	leftBound.Max = leftBound.Max.WithComponent(axis, splitPos)
	rightBound := bound
	rightBound.Min = rightBound.Min.WithComponent(axis, splitPos)

	// Reserve our slot, build left in place, then patch in the right child
	t.nodes = append(t.nodes, indexedKdtreeNode{})
	t.buildRecursive(leftItems, leftBound, bounds, depth+1)
	rightChild := t.buildRecursive(rightItems, rightBound, bounds, depth+1)
	t.nodes[nodeIndex] = makeInnerNode(axis, splitPos, rightChild)
	return nodeIndex
}

// chooseSplit picks the median of item AABB centers along the axis.
// Primitives with degenerate AABBs are still stored in the children but are
// never selected as split pivots.
func (t *IndexedKdtree) chooseSplit(items []int, axis int, bounds []core.AABB) (float64, bool) {
	centers := make([]float64, 0, len(items))
	for _, item := range items {
		if bounds[item].IsDegenerate() {
			continue
		}
		centers = append(centers, bounds[item].Center().Component(axis))
	}
	if len(centers) < 2 {
		return 0, false
	}

	sort.Float64s(centers)
	median := centers[len(centers)/2]
	if median == centers[0] {
		return 0, false // all pivots coincide; no useful plane
	}
	return median, true
}

type kdtreeTodo struct {
	nodeIndex  int
	tMin, tMax float64
}

// IsIntersecting walks the tree with an explicit todo stack, descending the
// near child first and pushing the far child only when the split plane lies
// inside the active interval.
func (t *IndexedKdtree) IsIntersecting(ray *core.Ray, probe *core.HitProbe) bool {
	hit, tMin, tMax := t.bound.HitRange(*ray, ray.TMin, ray.TMax)
	if !hit {
		return false
	}

	localRay := *ray

	var best core.HitProbe
	found := false

	var todo [64]kdtreeTodo
	todoSize := 0
	nodeIndex := 0

	for {
		node := t.nodes[nodeIndex]

		if localRay.TMax < tMin {
			break
		}

		if !node.isLeaf() {
			axis := node.splitAxis()
			split := node.splitPos()
			origin := localRay.Origin.Component(axis)
			dir := localRay.Direction.Component(axis)

			var nearChild, farChild int
			if origin < split || (origin == split && dir <= 0) {
				nearChild = nodeIndex + 1
				farChild = node.rightChildIndex()
			} else {
				nearChild = node.rightChildIndex()
				farChild = nodeIndex + 1
			}

			tSplit := math.Inf(1)
			if dir != 0 {
				tSplit = (split - origin) / dir
			}

			if tSplit >= tMax || tSplit < 0 {
				nodeIndex = nearChild
			} else if tSplit <= tMin {
				nodeIndex = farChild
			} else {
				todo[todoSize] = kdtreeTodo{nodeIndex: farChild, tMin: tSplit, tMax: tMax}
				todoSize++
				nodeIndex = nearChild
				tMax = tSplit
			}
			continue
		}

		// Leaf: test its items
		n := node.numItems()
		for i := 0; i < n; i++ {
			var itemIndex int
			if useSingleItemOpt && n == 1 {
				itemIndex = node.singleItemDirectIndex()
			} else {
				itemIndex = t.indexBuffer[node.itemIndexOffset()+i]
			}

			var candidate core.HitProbe
			candidate.Clear()
			candidate.DetailChannel = probe.DetailChannel
			if t.primitives[itemIndex].IsIntersecting(&localRay, &candidate) {
				localRay.TMax = candidate.T
				best = candidate
				found = true
			}
		}

		if todoSize == 0 {
			break
		}
		todoSize--
		nodeIndex = todo[todoSize].nodeIndex
		tMin = todo[todoSize].tMin
		tMax = todo[todoSize].tMax
	}

	if found {
		probe.ReplaceWith(&best)
	}
	return found
}

// CalcIntersectionDetail delegates to the primitive recorded on the probe
func (t *IndexedKdtree) CalcIntersectionDetail(ray *core.Ray, probe *core.HitProbe, detail *core.HitDetail) {
	probe.Current().CalcIntersectionDetail(ray, probe, detail)
}

// CalcAABB returns the tree bound
func (t *IndexedKdtree) CalcAABB() core.AABB {
	return t.bound
}

// IsOccluding answers an any-hit query over the ray interval
func (t *IndexedKdtree) IsOccluding(ray *core.Ray) bool {
	var probe core.HitProbe
	probe.Clear()
	return t.IsIntersecting(ray, &probe)
}
