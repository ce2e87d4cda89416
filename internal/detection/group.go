package detection

import (
	"image"
	"math"

	"github.com/ironsheep/plateguard/internal/plate"
)

// groupEps is the relative corner tolerance for two windows to be considered
// hits on the same object.
const groupEps = 0.2

// GroupRegions clusters overlapping raw hits and returns one averaged region
// per cluster with more than minNeighbors members.
//
// Clusters are reported in the order of their first member. Averaged regions
// fully contained in a larger surviving region with at least as much support
// are dropped. With minNeighbors == 0 the raw hits are returned unchanged.
func GroupRegions(raw []plate.Region, minNeighbors int) []plate.Region {
	if minNeighbors <= 0 || len(raw) == 0 {
		return raw
	}

	labels := partition(raw)

	type cluster struct {
		sumX, sumY, sumW, sumH int
		n                      int
	}
	var order []int
	clusters := make(map[int]*cluster)
	for i, r := range raw {
		c, ok := clusters[labels[i]]
		if !ok {
			c = &cluster{}
			clusters[labels[i]] = c
			order = append(order, labels[i])
		}
		c.sumX += r.X
		c.sumY += r.Y
		c.sumW += r.Width
		c.sumH += r.Height
		c.n++
	}

	type candidate struct {
		region plate.Region
		n      int
	}
	var kept []candidate
	for _, label := range order {
		c := clusters[label]
		if c.n <= minNeighbors {
			continue
		}
		kept = append(kept, candidate{
			region: plate.Region{
				X:      roundDiv(c.sumX, c.n),
				Y:      roundDiv(c.sumY, c.n),
				Width:  roundDiv(c.sumW, c.n),
				Height: roundDiv(c.sumH, c.n),
			},
			n: c.n,
		})
	}

	out := make([]plate.Region, 0, len(kept))
	for i, a := range kept {
		nested := false
		for j, b := range kept {
			if i == j || b.n < a.n {
				continue
			}
			dx := int(math.Round(float64(b.region.Width) * groupEps))
			dy := int(math.Round(float64(b.region.Height) * groupEps))
			if a.region.X >= b.region.X-dx &&
				a.region.Y >= b.region.Y-dy &&
				a.region.X+a.region.Width <= b.region.X+b.region.Width+dx &&
				a.region.Y+a.region.Height <= b.region.Y+b.region.Height+dy &&
				b.region.Area() > a.region.Area() {
				nested = true
				break
			}
		}
		if !nested {
			out = append(out, a.region)
		}
	}
	return out
}

// partition assigns every region a cluster label using union-find over the
// similarity relation. Each label is the index of the cluster's first member.
//
// Only plausible pairs are compared: hits are bucketed by size, since
// similar windows differ in width and height by at most twice the corner
// tolerance, and within a pair of sizes by position on a grid whose cells
// are as large as that tolerance.
func partition(regions []plate.Region) []int {
	parent := make([]int, len(regions))
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(i, j int) {
		ri, rj := find(i), find(j)
		// the smaller root wins so labels follow first appearance
		switch {
		case ri < rj:
			parent[rj] = ri
		case rj < ri:
			parent[ri] = rj
		}
	}

	var sizes []image.Point
	bySize := make(map[image.Point][]int)
	for i, r := range regions {
		size := image.Pt(r.Width, r.Height)
		if _, ok := bySize[size]; !ok {
			sizes = append(sizes, size)
		}
		bySize[size] = append(bySize[size], i)
	}

	for a := range sizes {
		for b := a; b < len(sizes); b++ {
			sa, sb := sizes[a], sizes[b]
			delta := tolerance(sa, sb)
			if math.Abs(float64(sa.X-sb.X)) > 2*delta || math.Abs(float64(sa.Y-sb.Y)) > 2*delta {
				continue
			}

			cell := int(delta) + 1
			grid := make(map[image.Point][]int)
			for _, j := range bySize[sb] {
				key := gridCell(regions[j], cell)
				grid[key] = append(grid[key], j)
			}
			for _, i := range bySize[sa] {
				key := gridCell(regions[i], cell)
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						for _, j := range grid[key.Add(image.Pt(dx, dy))] {
							if i != j && similar(regions[i], regions[j]) {
								union(i, j)
							}
						}
					}
				}
			}
		}
	}

	labels := make([]int, len(regions))
	for i := range regions {
		labels[i] = find(i)
	}
	return labels
}

// tolerance is the corner distance within which windows of sizes a and b
// count as the same object.
func tolerance(a, b image.Point) float64 {
	return groupEps * float64(min(a.X, b.X)+min(a.Y, b.Y)) * 0.5
}

func gridCell(r plate.Region, cell int) image.Point {
	return image.Pt(floorDiv(r.X, cell), floorDiv(r.Y, cell))
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func similar(a, b plate.Region) bool {
	delta := tolerance(image.Pt(a.Width, a.Height), image.Pt(b.Width, b.Height))
	return math.Abs(float64(a.X-b.X)) <= delta &&
		math.Abs(float64(a.Y-b.Y)) <= delta &&
		math.Abs(float64(a.X+a.Width-b.X-b.Width)) <= delta &&
		math.Abs(float64(a.Y+a.Height-b.Y-b.Height)) <= delta
}

func roundDiv(sum, n int) int {
	return int(math.Round(float64(sum) / float64(n)))
}
