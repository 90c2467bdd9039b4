package shower

import (
	"math"
)

// PixelType identifies the physical shape of a camera pixel.
type PixelType int

const (
	PixelSquare PixelType = 1
	PixelHex    PixelType = 2
)

// CSRMatrix is a compressed-sparse-row representation of a symmetric 0/1
// adjacency matrix. Row i's neighbor indices are IndexOf[Indptr[i]:Indptr[i+1]].
// Neighbor lookups and dilations are implemented as SpMV over this structure.
type CSRMatrix struct {
	N       int
	Indptr  []int
	IndexOf []int
}

// NumNeighbors returns the row degree of pixel i.
func (m *CSRMatrix) NumNeighbors(i int) int {
	return m.Indptr[i+1] - m.Indptr[i]
}

// Neighbors returns the neighbor pixel indices of i.
func (m *CSRMatrix) Neighbors(i int) []int {
	return m.IndexOf[m.Indptr[i]:m.Indptr[i+1]]
}

// SpMV computes, for every pixel i, the count of neighbors of i that are
// members of the boolean set `v`. This is the sparse-matrix*vector product
// that both cleaning and dilation use.
func (m *CSRMatrix) SpMV(v []bool) []int {
	out := make([]int, m.N)
	for i := 0; i < m.N; i++ {
		count := 0
		for _, j := range m.Neighbors(i) {
			if v[j] {
				count++
			}
		}
		out[i] = count
	}
	return out
}

// NeighborsOf returns the set S' = {i : |N(i) ∩ S| > 0}, the boolean mask of
// pixels with at least one neighbor in S.
func (m *CSRMatrix) NeighborsOf(s []bool) []bool {
	counts := m.SpMV(s)
	out := make([]bool, m.N)
	for i, c := range counts {
		out[i] = c > 0
	}
	return out
}

// Dilate returns mask ∪ neighbors_of(mask).
func (m *CSRMatrix) Dilate(mask []bool) []bool {
	nb := m.NeighborsOf(mask)
	out := make([]bool, m.N)
	for i := range out {
		out[i] = mask[i] || nb[i]
	}
	return out
}

// CameraGeometry is the static, immutable per-telescope pixel layout: pixel
// centers in the focal plane, pixel areas/types, and the derived neighbor
// adjacency.
type CameraGeometry struct {
	Name     string
	NumPixels int
	PixX     []float64
	PixY     []float64
	PixArea  []float64
	PixType  []PixelType

	Neighbors *CSRMatrix

	// fullNeighborCount caches the camera's canonical full-connectivity
	// degree (the maximum row-degree observed anywhere in the camera), used
	// by Leakage to define the outer ring without re-scanning every call. A
	// pixel with fewer neighbors than this is missing a neighbor on at
	// least one side, which only happens at the camera edge.
	fullNeighborCount int
}

// NewCameraGeometry builds a CameraGeometry and derives the neighbor
// adjacency from pairwise pixel-center distance: two pixels are neighbors
// iff their center distance is within 1.4*sqrt(max(pix_area)) for hex
// cameras, or 1.1*sqrt(pix_area) for square cameras.
func NewCameraGeometry(name string, pixX, pixY, pixArea []float64, pixType []PixelType) *CameraGeometry {
	n := len(pixX)
	cam := &CameraGeometry{
		Name:      name,
		NumPixels: n,
		PixX:      pixX,
		PixY:      pixY,
		PixArea:   pixArea,
		PixType:   pixType,
	}
	cam.Neighbors = buildNeighborMatrix(cam)
	cam.fullNeighborCount = cam.computeFullNeighborCount()
	return cam
}

func buildNeighborMatrix(cam *CameraGeometry) *CSRMatrix {
	n := cam.NumPixels
	maxArea := 0.0
	for _, a := range cam.PixArea {
		if a > maxArea {
			maxArea = a
		}
	}

	rows := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			dx := cam.PixX[i] - cam.PixX[j]
			dy := cam.PixY[i] - cam.PixY[j]
			dist := math.Hypot(dx, dy)

			var threshold float64
			if cam.PixType[i] == PixelHex {
				threshold = 1.4 * math.Sqrt(maxArea)
			} else {
				threshold = 1.1 * math.Sqrt(cam.PixArea[i])
			}

			if dist <= threshold {
				rows[i] = append(rows[i], j)
			}
		}
	}

	indptr := make([]int, n+1)
	var indexOf []int
	for i := 0; i < n; i++ {
		indptr[i] = len(indexOf)
		indexOf = append(indexOf, rows[i]...)
	}
	indptr[n] = len(indexOf)

	return &CSRMatrix{N: n, Indptr: indptr, IndexOf: indexOf}
}

// computeFullNeighborCount returns the largest row-degree observed anywhere
// in the camera: the degree an interior pixel has when it's surrounded on
// every side. Edge pixels fall short of this by construction.
func (cam *CameraGeometry) computeFullNeighborCount() int {
	best := 0
	for i := 0; i < cam.NumPixels; i++ {
		if deg := cam.Neighbors.NumNeighbors(i); deg > best {
			best = deg
		}
	}
	return best
}

// OuterRing1 returns the boolean mask of pixels whose neighbor count is below
// the camera's canonical full-connectivity degree -- the outermost ring used
// by Leakage.
func (cam *CameraGeometry) OuterRing1() []bool {
	out := make([]bool, cam.NumPixels)
	for i := 0; i < cam.NumPixels; i++ {
		out[i] = cam.Neighbors.NumNeighbors(i) < cam.fullNeighborCount
	}
	return out
}

// OuterRing2 returns OuterRing1 dilated by one step.
func (cam *CameraGeometry) OuterRing2() []bool {
	return cam.Neighbors.Dilate(cam.OuterRing1())
}
