package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime"

	"github.com/alitto/pond"
	"github.com/urfave/cli/v2"

	shower "github.com/array-shower/reco"
	"github.com/array-shower/reco/search"
)

// processFile runs the full R1->DL2 pipeline over every event in inputURI
// and writes results to outputURI. OpenEventSource supplies the concrete,
// format-specific reader; it is a seam left for a real telescope-data parser
// to be registered, since that parser is an external collaborator and not
// itself part of this pipeline.
func processFile(inputURI, outputURI string, cfg shower.Config, telescopeFilter map[int]bool) error {
	src, err := shower.OpenEventSource(inputURI)
	if err != nil {
		return err
	}

	calibrator, err := shower.NewCalibrator(cfg.Calibrator)
	if err != nil {
		return err
	}

	imageProc, err := shower.NewImageProcessor(cfg.ImageProcessor, telescopeCameras(src.Subarray()))
	if err != nil {
		return err
	}

	showerProc, err := shower.NewShowerProcessor(cfg.ShowerProcessor, src.Subarray(), src.AtmosphereModel())
	if err != nil {
		return err
	}

	writer, err := shower.NewWriter(outputURI, cfg.DataWriter)
	if err != nil {
		return err
	}
	defer writer.Close()

	if err := writer.WriteSubarray(src.Subarray()); err != nil {
		return err
	}
	if err := writer.WriteSimulationConfig(src.SimulationConfig()); err != nil {
		return err
	}
	if err := writer.WriteAtmosphereModel(src.AtmosphereModel()); err != nil {
		return err
	}
	if err := writer.WriteMetaparam(src.Metaparam()); err != nil {
		return err
	}

	if run := src.RunMetadata(); !run.ReferenceTime.IsZero() {
		log.Printf("%s: observation_id=%d software=%s reference_time=%s",
			inputURI, run.ObservationID, run.SoftwareVersion, run.ReferenceTime.Format("2006-01-02T15:04:05Z"))
	}

	qa := shower.NewQAAccumulator()

	ctx := context.Background()
	events, errc := src.Events(ctx)
	for event := range events {
		if telescopeFilter != nil {
			for telID := range event.R1 {
				if !telescopeFilter[telID] {
					delete(event.R1, telID)
				}
			}
		}

		calibrator.Calibrate(event)
		imageProc.Process(event)
		if err := showerProc.Process(event); err != nil {
			log.Println("reconstruction skipped for event", event.EventID, ":", err)
		}

		qa.Observe(event)

		if err := writer.WriteEvent(event); err != nil {
			return err
		}
	}

	if err := <-errc; err != nil {
		return err
	}

	qi := qa.Finish()
	log.Printf("finished %s: %d events processed, %d reconstructed, consistent_tel_count=%v",
		inputURI, qi.EventsProcessed, qi.EventsReconstructed, qi.ConsistentTelCount)

	return nil
}

func telescopeCameras(sub *shower.SubarrayDescription) map[int]*shower.CameraGeometry {
	cams := make(map[int]*shower.CameraGeometry, len(sub.Telescopes))
	for telID, tel := range sub.Telescopes {
		cams[telID] = tel.CameraDescription
	}
	return cams
}

func parseTelescopeFilter(ids []int) map[int]bool {
	if len(ids) == 0 {
		return nil
	}
	filter := make(map[int]bool, len(ids))
	for _, v := range ids {
		filter[v] = true
	}
	return filter
}

func run(inputs, outputs []string, configURI string, maxLeakage2 float64, telescopeFilter map[int]bool) error {
	if len(outputs) > 0 && len(inputs) != len(outputs) {
		return shower.ErrFlagMismatch
	}

	cfg, err := shower.LoadConfig(configURI)
	if err != nil {
		return err
	}

	if maxLeakage2 > 0 {
		if err := shower.OverrideMaxLeakage2(&cfg, maxLeakage2); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	n := runtime.NumCPU() * 2
	pool := pond.New(n, 0, pond.MinWorkers(n), pond.Context(ctx))
	defer pool.StopAndWait()

	for i, in := range inputs {
		inputURI := in
		outputURI := inputURI + ".dl2"
		if len(outputs) > 0 {
			outputURI = outputs[i]
		}

		pool.Submit(func() {
			if err := processFile(inputURI, outputURI, cfg, telescopeFilter); err != nil {
				log.Println("error processing", inputURI, ":", err)
			}
		})
	}

	return nil
}

func main() {
	app := &cli.App{
		Name:  "reco",
		Usage: "calibrate, clean, parameterize, and stereoscopically reconstruct air-shower events",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "input event file URI (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "output URI, one per -i, in the same order (repeatable)",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a JSON pipeline configuration",
			},
			&cli.Float64Flag{
				Name:    "max-leakage2",
				Aliases: []string{"l"},
				Usage:   "tighten every reconstructor's quality cut with leakage_intensity_width_2 < VALUE",
			},
			&cli.IntSliceFlag{
				Name:    "telescope",
				Aliases: []string{"s"},
				Usage:   "restrict processing to these telescope ids (repeatable); default is all",
			},
		},
		Action: func(cCtx *cli.Context) error {
			filter := parseTelescopeFilter(cCtx.IntSlice("telescope"))
			return run(
				cCtx.StringSlice("input"),
				cCtx.StringSlice("output"),
				cCtx.String("config"),
				cCtx.Float64("max-leakage2"),
				filter,
			)
		},
		Commands: []*cli.Command{
			{
				Name:  "trawl",
				Usage: "recursively discover input files under a directory or object-store prefix and process each",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "uri", Usage: "root URI to search"},
					&cli.StringFlag{Name: "pattern", Value: "*.simtel.gz", Usage: "glob pattern matched against each file's basename"},
					&cli.StringFlag{Name: "config", Aliases: []string{"c"}},
					&cli.StringFlag{Name: "outdir", Usage: "output directory; defaults to alongside each input"},
				},
				Action: func(cCtx *cli.Context) error {
					items := search.FindInputs(cCtx.String("uri"), cCtx.String("pattern"), "")
					log.Println("found", len(items), "input files")

					outputs := make([]string, 0, len(items))
					outdir := cCtx.String("outdir")
					for _, item := range items {
						if outdir == "" {
							outputs = append(outputs, item+".dl2")
						} else {
							outputs = append(outputs, outdir+"/"+item+".dl2")
						}
					}

					return run(items, outputs, cCtx.String("config"), 0, nil)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
