package shower

// TailcutsConfig holds the two-threshold cleaning parameters.
type TailcutsConfig struct {
	PictureThresh            float64
	BoundaryThresh            float64
	KeepIsolatedPixels        bool
	MinNumberPictureNeighbors int
}

// TailcutsClean implements the two-stage tailcuts cleaning algorithm as set
// operations over picture/boundary pixel masks, implemented here as SpMV
// over the camera's neighbor CSR matrix for O(edges) cost.
func TailcutsClean(cam *CameraGeometry, image []float64, cfg TailcutsConfig) []bool {
	n := cam.NumPixels

	picture := make([]bool, n)
	for i := 0; i < n; i++ {
		picture[i] = image[i] >= cfg.PictureThresh
	}

	var pictureConstrained []bool
	if cfg.KeepIsolatedPixels || cfg.MinNumberPictureNeighbors == 0 {
		pictureConstrained = picture
	} else {
		neighborCounts := cam.Neighbors.SpMV(picture)
		pictureConstrained = make([]bool, n)
		for i := 0; i < n; i++ {
			pictureConstrained[i] = picture[i] && neighborCounts[i] >= cfg.MinNumberPictureNeighbors
		}
	}

	boundary := make([]bool, n)
	for i := 0; i < n; i++ {
		boundary[i] = image[i] >= cfg.BoundaryThresh
	}

	neighborsOfPicture := cam.Neighbors.NeighborsOf(pictureConstrained)

	result := make([]bool, n)
	if cfg.KeepIsolatedPixels {
		for i := 0; i < n; i++ {
			result[i] = (boundary[i] && neighborsOfPicture[i]) || pictureConstrained[i]
		}
	} else {
		neighborsOfBoundary := cam.Neighbors.NeighborsOf(boundary)
		for i := 0; i < n; i++ {
			result[i] = (boundary[i] && neighborsOfPicture[i]) || (pictureConstrained[i] && neighborsOfBoundary[i])
		}
	}

	return result
}

// Dilate grows a cleaning mask by one step of neighbor adjacency. It is a
// thin wrapper over CameraGeometry.Neighbors.Dilate kept at package level so
// call sites that only hold an image mask (not the CSR matrix directly) read
// naturally. Both call sites are made explicit here (see
// ImageProcessorConfig.DilateBeforeParameterization).
func Dilate(cam *CameraGeometry, mask []bool) []bool {
	return cam.Neighbors.Dilate(mask)
}

// CountSet returns the number of true entries in mask.
func CountSet(mask []bool) int {
	n := 0
	for _, v := range mask {
		if v {
			n++
		}
	}
	return n
}
