package shower

import "testing"

func TestComputeMorphologyTwoSeparateRows(t *testing.T) {
	cam := square5x5Camera()
	mask := make([]bool, 25)
	for col := 0; col < 5; col++ {
		mask[0*5+col] = true // row 0: one connected island of 5
		mask[2*5+col] = true // row 2: a second island, not adjacent to row 0
	}

	m := ComputeMorphology(cam, mask)

	if m.NPixels != 10 {
		t.Errorf("NPixels = %d, want 10", m.NPixels)
	}
	if m.NIslands != 2 {
		t.Errorf("NIslands = %d, want 2", m.NIslands)
	}
	if m.NSmallIslands != 2 {
		t.Errorf("NSmallIslands = %d, want 2 (both islands have 5 pixels)", m.NSmallIslands)
	}
	if m.NMediumIslands != 0 || m.NLargeIslands != 0 {
		t.Errorf("expected no medium/large islands, got medium=%d large=%d", m.NMediumIslands, m.NLargeIslands)
	}
}

func TestComputeMorphologyEmptyMask(t *testing.T) {
	cam := square5x5Camera()
	mask := make([]bool, 25)

	m := ComputeMorphology(cam, mask)
	if m.NPixels != 0 || m.NIslands != 0 {
		t.Errorf("empty mask should yield zero pixels and islands, got %+v", m)
	}
}

func TestComputeMorphologySingleIsland(t *testing.T) {
	cam := square5x5Camera()
	mask := make([]bool, 25)
	for i := range mask {
		mask[i] = true
	}

	m := ComputeMorphology(cam, mask)
	if m.NIslands != 1 {
		t.Errorf("a fully lit camera should form a single island, got %d", m.NIslands)
	}
	if m.NMediumIslands != 1 {
		t.Errorf("a 25-pixel island should classify as medium, got small=%d medium=%d large=%d",
			m.NSmallIslands, m.NMediumIslands, m.NLargeIslands)
	}
}
