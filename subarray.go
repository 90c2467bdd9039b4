package shower

// OpticsDescription describes a telescope's optical system.
type OpticsDescription struct {
	MirrorArea              float64
	EquivalentFocalLength   float64
	EffectiveFocalLength    float64
	NumMirrors              int
	OpticsName              string
}

// TelescopeDescription pairs a camera layout with its optics.
type TelescopeDescription struct {
	CameraDescription *CameraGeometry
	OpticsDescription OpticsDescription
}

// Position3 is a point in the local ground frame, meters.
type Position3 struct {
	X, Y, Z float64
}

// SubarrayDescription is the static, read-only array layout shared by
// reference across every processor once constructed.
type SubarrayDescription struct {
	Telescopes        map[int]TelescopeDescription
	Positions         map[int]Position3
	ReferencePosition Position3
}

// NewSubarrayDescription builds an empty subarray ready for telescopes to be
// registered via AddTelescope.
func NewSubarrayDescription(ref Position3) *SubarrayDescription {
	return &SubarrayDescription{
		Telescopes: make(map[int]TelescopeDescription),
		Positions:  make(map[int]Position3),
		ReferencePosition: ref,
	}
}

// AddTelescope registers telescope telID's description and ground position.
func (s *SubarrayDescription) AddTelescope(telID int, desc TelescopeDescription, pos Position3) {
	s.Telescopes[telID] = desc
	s.Positions[telID] = pos
}

// TelIDs returns the sorted telescope ids (deterministic iteration order for
// callers that need one).
func (s *SubarrayDescription) TelIDs() []int {
	ids := make([]int, 0, len(s.Telescopes))
	for id := range s.Telescopes {
		ids = append(ids, id)
	}
	// simple insertion sort; subarrays are small (tens of telescopes)
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}
