package shower

import (
	"encoding/json"
	"errors"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
)

// jsonEventRecord is the JSON-serializable projection of one ArrayEvent,
// flattening the layers that DataWriterConfig asks to be persisted.
type jsonEventRecord struct {
	EventID         int                               `json:"event_id"`
	RunID           int                               `json:"run_id"`
	DL1             map[int]ImageParameters           `json:"dl1,omitempty"`
	DL1Image        map[int][]float64                 `json:"dl1_image,omitempty"`
	DL2             map[string]ReconstructedGeometry   `json:"dl2,omitempty"`
	Simulation      *SimulatedShower                   `json:"simulation,omitempty"`
	SimulatedCamera map[int][]float64                  `json:"simulated_camera,omitempty"`
	Pointing        *jsonPointing                       `json:"pointing,omitempty"`
	R0              map[int]jsonWaveformSummary         `json:"r0,omitempty"`
	R1              map[int]jsonWaveformSummary         `json:"r1,omitempty"`
	DL0             map[int]jsonWaveformSummary         `json:"dl0,omitempty"`
	Monitor         map[int]jsonMonitor                 `json:"monitor,omitempty"`
}

// jsonPointing is the array-level pointing direction; per-telescope offsets
// are not separately persisted, the same scope simplification the TileDB
// backend makes.
type jsonPointing struct {
	ArrayAltitude float64 `json:"array_altitude"`
	ArrayAzimuth  float64 `json:"array_azimuth"`
}

// jsonWaveformSummary mirrors waveformSummaryRow for the JSON backend.
type jsonWaveformSummary struct {
	NumPixels    int64   `json:"num_pixels"`
	NumSamples   int64   `json:"num_samples"`
	MaxAmplitude float64 `json:"max_amplitude"`
}

// jsonMonitor mirrors monitorRow for the JSON backend.
type jsonMonitor struct {
	MeanPedestal float64 `json:"mean_pedestal"`
	MeanGain     float64 `json:"mean_gain"`
}

// jsonWriter persists events as one JSON document, written through a TileDB
// VFS stream so output can target local disk or an object store identical to
// the tiledb backend. tiledb.VFS is used here purely as a portable file
// sink; no TileDB array machinery is involved.
type jsonWriter struct {
	uri     string
	ctx     *tiledb.Context
	vfs     *tiledb.VFS
	cfg     DataWriterConfig
	records []jsonEventRecord

	sub        *SubarrayDescription
	simConfig  *SimulationConfig
	atmSamples []atmosphereSample
	metaparam  map[string]string
}

func newJSONWriter(uri string, cfg DataWriterConfig) (*jsonWriter, error) {
	config, err := tiledb.NewConfig()
	if err != nil {
		return nil, errors.Join(ErrOpenOutput, err)
	}
	defer config.Free()

	ctx, err := tiledb.NewContext(config)
	if err != nil {
		return nil, errors.Join(ErrOpenOutput, err)
	}

	vfs, err := tiledb.NewVFS(ctx, config)
	if err != nil {
		ctx.Free()
		return nil, errors.Join(ErrOpenOutput, err)
	}

	return &jsonWriter{uri: uri, ctx: ctx, vfs: vfs, cfg: cfg}, nil
}

func (w *jsonWriter) WriteSubarray(sub *SubarrayDescription) error {
	if !w.cfg.WriteSubarray {
		return nil
	}
	w.sub = sub
	return nil
}

func (w *jsonWriter) WriteSimulationConfig(cfg SimulationConfig) error {
	if !w.cfg.WriteSimulationConfig {
		return nil
	}
	w.simConfig = &cfg
	return nil
}

func (w *jsonWriter) WriteAtmosphereModel(atm AtmosphereProfile) error {
	if !w.cfg.WriteAtmosphereModel || atm == nil {
		return nil
	}
	samples := make([]atmosphereSample, 0, 26)
	for h := 0.0; h <= 25000.0; h += 1000.0 {
		samples = append(samples, atmosphereSample{HeightM: h, ColumnDensity: atm.ColumnDensity(h)})
	}
	w.atmSamples = samples
	return nil
}

func (w *jsonWriter) WriteMetaparam(meta map[string]string) error {
	if !w.cfg.WriteMetaparam {
		return nil
	}
	w.metaparam = meta
	return nil
}

func (w *jsonWriter) WriteEvent(event *ArrayEvent) error {
	rec := jsonEventRecord{EventID: event.EventID, RunID: event.RunID}

	if w.cfg.WriteDL1 {
		rec.DL1 = make(map[int]ImageParameters, len(event.DL1))
		for telID, dl1 := range event.DL1 {
			rec.DL1[telID] = dl1.ImageParameters
		}
	}

	if w.cfg.WriteDL1Image {
		rec.DL1Image = make(map[int][]float64, len(event.DL1))
		for telID, dl1 := range event.DL1 {
			rec.DL1Image[telID] = dl1.Image
		}
	}

	if w.cfg.WriteDL2 && event.DL2 != nil {
		rec.DL2 = event.DL2.Geometry
	}

	if w.cfg.WriteSimulationShower && event.Simulation != nil {
		rec.Simulation = event.Simulation
	}

	if w.cfg.WriteSimulatedCamera && len(event.SimulatedCameras) > 0 {
		rec.SimulatedCamera = make(map[int][]float64, len(event.SimulatedCameras))
		for telID, sc := range event.SimulatedCameras {
			rec.SimulatedCamera[telID] = sc.TrueImage
		}
	}

	if w.cfg.WritePointing && event.Pointing != nil {
		rec.Pointing = &jsonPointing{
			ArrayAltitude: float64(event.Pointing.ArrayAltitude),
			ArrayAzimuth:  float64(event.Pointing.ArrayAzimuth),
		}
	}

	if w.cfg.WriteR0 && len(event.R0) > 0 {
		rec.R0 = make(map[int]jsonWaveformSummary, len(event.R0))
		for telID, r0 := range event.R0 {
			rec.R0[telID] = summarizeWaveformJSON(r0.Waveform)
		}
	}
	if w.cfg.WriteR1 && len(event.R1) > 0 {
		rec.R1 = make(map[int]jsonWaveformSummary, len(event.R1))
		for telID, r1 := range event.R1 {
			rec.R1[telID] = summarizeWaveformJSON(r1.Waveform)
		}
	}
	if w.cfg.WriteDL0 && len(event.DL0) > 0 {
		rec.DL0 = make(map[int]jsonWaveformSummary, len(event.DL0))
		for telID, dl0 := range event.DL0 {
			rec.DL0[telID] = summarizeWaveformJSON(dl0.Waveform)
		}
	}
	if w.cfg.WriteMonitor && len(event.Monitor) > 0 {
		rec.Monitor = make(map[int]jsonMonitor, len(event.Monitor))
		for telID, mon := range event.Monitor {
			rec.Monitor[telID] = jsonMonitor{MeanPedestal: meanOf(mon.Pedestal), MeanGain: meanOf(mon.Gain)}
		}
	}

	w.records = append(w.records, rec)
	return nil
}

func summarizeWaveformJSON(waveform [][]float64) jsonWaveformSummary {
	row := summarizeWaveform(0, 0, waveform)
	return jsonWaveformSummary{NumPixels: row.NumPixels, NumSamples: row.NumSamples, MaxAmplitude: row.MaxAmplitude}
}

// Close serializes every buffered event plus the one-shot subarray/sim/atm/
// metaparam namespaces as a single JSON document and writes it through the
// VFS write stream.
func (w *jsonWriter) Close() error {
	defer w.vfs.Free()
	defer w.ctx.Free()

	payload := struct {
		Subarray        *SubarrayDescription `json:"subarray,omitempty"`
		SimulationConfig *SimulationConfig   `json:"simulation_config,omitempty"`
		AtmosphereModel []atmosphereSample   `json:"atmosphere_model,omitempty"`
		Metaparam       map[string]string    `json:"metaparam,omitempty"`
		Events          []jsonEventRecord    `json:"events"`
	}{
		Subarray:         w.sub,
		SimulationConfig: w.simConfig,
		AtmosphereModel:  w.atmSamples,
		Metaparam:        w.metaparam,
		Events:           w.records,
	}

	jsn, err := json.MarshalIndent(payload, "", "    ")
	if err != nil {
		return errors.Join(ErrOpenOutput, err)
	}

	stream, err := w.vfs.Open(w.uri, tiledb.TILEDB_VFS_WRITE)
	if err != nil {
		return errors.Join(ErrOpenOutput, err)
	}
	defer stream.Close()

	if _, err := stream.Write(jsn); err != nil {
		return errors.Join(ErrOpenOutput, err)
	}

	return nil
}
