package accel

import (
	"math"
	"sort"

	"github.com/arvoss/go-pathtracer/pkg/core"
)

const (
	bvhLeafThreshold = 4
	bvhNumSahBins    = 12
)

// bvhNode is a flattened BVH node. Inner nodes store the index of their right
// child (the left child is the next node in depth-first order); leaves store a
// contiguous range into the primitive index array.
type bvhNode struct {
	bound      core.AABB
	rightChild int // inner nodes only
	firstPrim  int // leaves only: offset into primOrder
	primCount  int // 0 marks an inner node
	splitAxis  int
}

// Bvh is a binary bounding volume hierarchy over primitives built with binned
// SAH partitioning. It satisfies core.Intersectable for closest-hit queries
// and additionally answers any-hit (occlusion) queries.
type Bvh struct {
	primitives []core.Primitive
	primOrder  []int
	nodes      []bvhNode
}

// NewBvh builds a BVH over the given primitives. An empty build yields a tree
// whose root is an empty leaf; all queries return false.
func NewBvh(primitives []core.Primitive) *Bvh {
	bvh := &Bvh{primitives: primitives}

	if len(primitives) == 0 {
		bvh.nodes = []bvhNode{{bound: core.EmptyAABB()}}
		return bvh
	}

	bvh.primOrder = make([]int, len(primitives))
	bounds := make([]core.AABB, len(primitives))
	centers := make([]core.Vec3, len(primitives))
	for i, prim := range primitives {
		bvh.primOrder[i] = i
		bounds[i] = prim.CalcAABB()
		centers[i] = bounds[i].Center()
	}

	bvh.nodes = make([]bvhNode, 0, 2*len(primitives))
	bvh.buildRecursive(0, len(primitives), bounds, centers)
	return bvh
}

// buildRecursive appends the subtree over primOrder[start:end] and returns its
// root node index
func (b *Bvh) buildRecursive(start, end int, bounds []core.AABB, centers []core.Vec3) int {
	nodeIndex := len(b.nodes)
	b.nodes = append(b.nodes, bvhNode{})

	bound := core.EmptyAABB()
	centerBound := core.EmptyAABB()
	for i := start; i < end; i++ {
		bound = bound.Union(bounds[b.primOrder[i]])
		centerBound = centerBound.UnionPoint(centers[b.primOrder[i]])
	}

	count := end - start
	if count <= bvhLeafThreshold {
		b.nodes[nodeIndex] = bvhNode{bound: bound, firstPrim: start, primCount: count}
		return nodeIndex
	}

	axis := centerBound.LongestAxis()
	mid := b.partitionSah(start, end, axis, centerBound, bounds, centers)
	if mid <= start || mid >= end {
		// SAH found no useful split; fall back to an object median
		mid = (start + end) / 2
		order := b.primOrder[start:end]
		sort.Slice(order, func(i, j int) bool {
			return centers[order[i]].Component(axis) < centers[order[j]].Component(axis)
		})
	}

	b.buildRecursive(start, mid, bounds, centers)
	rightChild := b.buildRecursive(mid, end, bounds, centers)
	b.nodes[nodeIndex] = bvhNode{bound: bound, rightChild: rightChild, splitAxis: axis}
	return nodeIndex
}

// partitionSah bins primitives along the axis, picks the minimum-cost plane
// and partitions primOrder[start:end] around it. Degenerate-AABB primitives
// are binned by center but never contribute a candidate plane.
func (b *Bvh) partitionSah(start, end, axis int, centerBound core.AABB, bounds []core.AABB, centers []core.Vec3) int {
	lo := centerBound.Min.Component(axis)
	hi := centerBound.Max.Component(axis)
	if hi <= lo {
		return start // all centers coincide
	}

	type bin struct {
		bound core.AABB
		count int
	}
	bins := [bvhNumSahBins]bin{}
	for i := range bins {
		bins[i].bound = core.EmptyAABB()
	}

	binOf := func(primIdx int) int {
		f := (centers[primIdx].Component(axis) - lo) / (hi - lo)
		idx := int(f * bvhNumSahBins)
		if idx >= bvhNumSahBins {
			idx = bvhNumSahBins - 1
		}
		return idx
	}

	for i := start; i < end; i++ {
		p := b.primOrder[i]
		bi := binOf(p)
		bins[bi].count++
		bins[bi].bound = bins[bi].bound.Union(bounds[p])
	}

	bestCost := math.Inf(1)
	bestSplit := -1
	for split := 1; split < bvhNumSahBins; split++ {
		leftBound, rightBound := core.EmptyAABB(), core.EmptyAABB()
		leftCount, rightCount := 0, 0
		for i := 0; i < split; i++ {
			if bins[i].count > 0 {
				leftBound = leftBound.Union(bins[i].bound)
				leftCount += bins[i].count
			}
		}
		for i := split; i < bvhNumSahBins; i++ {
			if bins[i].count > 0 {
				rightBound = rightBound.Union(bins[i].bound)
				rightCount += bins[i].count
			}
		}
		if leftCount == 0 || rightCount == 0 {
			continue
		}
		cost := float64(leftCount)*leftBound.SurfaceArea() +
			float64(rightCount)*rightBound.SurfaceArea()
		if cost < bestCost {
			bestCost = cost
			bestSplit = split
		}
	}
	if bestSplit < 0 {
		return start
	}

	// In-place partition around the chosen plane
	mid := start
	for i := start; i < end; i++ {
		if binOf(b.primOrder[i]) < bestSplit {
			b.primOrder[mid], b.primOrder[i] = b.primOrder[i], b.primOrder[mid]
			mid++
		}
	}
	return mid
}

// IsIntersecting finds the closest hit over all primitives. Children are
// visited near-first by the ray direction's sign on the node's split axis.
func (b *Bvh) IsIntersecting(ray *core.Ray, probe *core.HitProbe) bool {
	localRay := *ray

	var best core.HitProbe
	found := false

	stack := make([]int, 1, 64)
	stack[0] = 0

	for len(stack) > 0 {
		nodeIdx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &b.nodes[nodeIdx]

		if !n.bound.Hit(localRay, localRay.TMin, localRay.TMax) {
			continue
		}

		if n.rightChild == 0 {
			// Leaf (an empty build's root has primCount 0 and tests nothing)
			for i := n.firstPrim; i < n.firstPrim+n.primCount; i++ {
				prim := b.primitives[b.primOrder[i]]
				var candidate core.HitProbe
				candidate.Clear()
				candidate.DetailChannel = probe.DetailChannel
				if prim.IsIntersecting(&localRay, &candidate) {
					localRay.TMax = candidate.T
					best = candidate
					found = true
				}
			}
			continue
		}

		near, far := nodeIdx+1, n.rightChild
		if localRay.Direction.Component(n.splitAxis) < 0 {
			near, far = far, near
		}
		stack = append(stack, far, near)
	}

	if found {
		probe.ReplaceWith(&best)
	}
	return found
}

// CalcIntersectionDetail delegates to the primitive recorded on the probe
func (b *Bvh) CalcIntersectionDetail(ray *core.Ray, probe *core.HitProbe, detail *core.HitDetail) {
	probe.Current().CalcIntersectionDetail(ray, probe, detail)
}

// CalcAABB returns the root bound
func (b *Bvh) CalcAABB() core.AABB {
	return b.nodes[0].bound
}

// IsOccluding answers an any-hit query over the ray interval
func (b *Bvh) IsOccluding(ray *core.Ray) bool {
	if len(b.primitives) == 0 {
		return false
	}

	stack := make([]int, 1, 64)
	stack[0] = 0

	for len(stack) > 0 {
		nodeIdx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &b.nodes[nodeIdx]

		if !n.bound.Hit(*ray, ray.TMin, ray.TMax) {
			continue
		}

		if n.rightChild == 0 {
			for i := n.firstPrim; i < n.firstPrim+n.primCount; i++ {
				var candidate core.HitProbe
				candidate.Clear()
				if b.primitives[b.primOrder[i]].IsIntersecting(ray, &candidate) {
					return true
				}
			}
			continue
		}

		stack = append(stack, n.rightChild, nodeIdx+1)
	}
	return false
}
