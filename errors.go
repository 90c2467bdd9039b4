package shower

import (
	"errors"
)

// Configuration errors; fail before processing starts.
var ErrUnknownImageExtractor = errors.New("Unknown image_extractor_type in calibrator config")
var ErrUnknownImageCleaner = errors.New("Unknown image_cleaner_type in image_processor config")
var ErrUnknownReconstructor = errors.New("Unknown reconstructor name in GeometryReconstructionTypes")
var ErrUnknownOutputType = errors.New("Unknown output_type in data_writer config")
var ErrBadImageQuery = errors.New("Error parsing ImageQuery expression")
var ErrUnknownIdentifier = errors.New("Unknown identifier in ImageQuery expression")
var ErrFlagMismatch = errors.New("Number of -i inputs does not match number of -o outputs")
var ErrBadReferenceTime = errors.New("Error parsing run reference time")

// I/O errors; skip the current file and continue with the next.
var ErrOpenInput = errors.New("Error opening input event source")
var ErrOpenOutput = errors.New("Error opening output writer")
var ErrOutputExists = errors.New("Output already exists and overwrite is false")

// Event-level errors; log and continue with the next event.
var ErrNoTelescopesPassedQuality = errors.New("No telescopes passed the quality predicate")
var ErrInsufficientTelescopes = errors.New("Fewer than two telescopes available for stereo reconstruction")

// Numerical degeneracy; reported via ReconstructedGeometry.IsValid=false, never an error return.
var ErrSingularCovariance = errors.New("Singular or ill-conditioned covariance matrix")
var ErrParallelAxes = errors.New("Telescope pair axes are parallel")

// Invariant violations; fatal, abort the current file.
var ErrNegativeIntensity = errors.New("Negative pixel intensity after calibration")
var ErrBadAdjacency = errors.New("Impossible neighbor adjacency in CameraGeometry")

// TileDB/writer plumbing errors.
var ErrCreateAttributeTdb = errors.New("Error creating TileDB attribute")
var ErrCreateDimTdb = errors.New("Error creating TileDB dimension")
var ErrCreateSchemaTdb = errors.New("Error creating TileDB array schema")
var ErrCreateGroupTdb = errors.New("Error creating TileDB group")
var ErrWriteArrayTdb = errors.New("Error writing TileDB array")
var ErrAddFilters = errors.New("Error adding filter to FilterList")
var ErrDims = errors.New("Error: slice has more than 2 dimensions")
var ErrDtype = errors.New("Error: unexpected slice datatype")
