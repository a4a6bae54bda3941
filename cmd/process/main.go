// Command process runs the variable pipeline over a CSV file and writes
// the processed CSV, per-variable JSON configs, and handler summary to an
// output directory. It is the batch counterpart of the HTTP service.
//
// With -device it instead treats the input as a vendor device export and
// writes per-variable device configs, optionally aligned to an
// abstraction dictionary CSV.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/axsol/varconfig/internal/csvio"
	"github.com/axsol/varconfig/internal/export"
	"github.com/axsol/varconfig/internal/logging"
	"github.com/axsol/varconfig/internal/pipeline"
)

func main() {
	input := flag.String("input", "", "input CSV path")
	outdir := flag.String("outdir", ".", "output directory")
	saveProcessed := flag.Bool("save-processed", true, "write processed_variables.csv")
	device := flag.Bool("device", false, "export device configs instead of running the pipeline")
	abstractions := flag.String("abstractions", "", "abstraction dictionary CSV for device export alignment")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	logging.Setup(*logLevel, "text")

	if *input == "" {
		fmt.Fprintln(os.Stderr, "missing -input; example: process -input variables.csv -outdir out")
		os.Exit(2)
	}

	var err error
	if *device {
		err = runDeviceExport(*input, *outdir, *abstractions)
	} else {
		err = run(*input, *outdir, *saveProcessed)
	}
	if err != nil {
		slog.Error("processing failed", "input", *input, "error", err)
		os.Exit(1)
	}
}

func run(input, outdir string, saveProcessed bool) error {
	header, rows, err := readCSVFile(input)
	if err != nil {
		return err
	}

	result, err := pipeline.Process(header, rows)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outdir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if saveProcessed {
		if err := export.WriteOutputs(outdir, result); err != nil {
			return err
		}
	} else {
		if err := export.WriteConfigs(outdir+"/"+export.ConfigsDirName, result); err != nil {
			return err
		}
		if err := os.WriteFile(outdir+"/"+export.SummaryFileName,
			[]byte(export.FormatSummary(result.Spans)), 0o644); err != nil {
			return fmt.Errorf("writing handler summary: %w", err)
		}
	}

	slog.Info("processed variables",
		"count", len(result.Rows),
		"handlers", result.HandlerCount,
		"outdir", outdir,
	)
	return nil
}

func runDeviceExport(input, outdir, abstractionsPath string) error {
	header, rows, err := readCSVFile(input)
	if err != nil {
		return err
	}
	if kind := csvio.DetectKind(header); kind != csvio.KindDevice {
		return fmt.Errorf("%s is not a device export (detected %q)", input, kind)
	}

	mode := export.DeviceModeNative
	abstractions := csvio.AbstractionSet{}
	if abstractionsPath != "" {
		absHeader, absRows, err := readCSVFile(abstractionsPath)
		if err != nil {
			return err
		}
		abstractions = csvio.ReadAbstractions(absHeader, absRows)
		mode = export.DeviceModeAligned
	}

	configs := export.BuildDeviceConfigs(header, rows, abstractions, mode)
	if err := export.WriteDeviceConfigs(outdir, configs); err != nil {
		return err
	}

	slog.Info("exported device configs",
		"count", len(configs),
		"mode", mode,
		"outdir", outdir,
	)
	return nil
}

func readCSVFile(path string) ([]string, []pipeline.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	header, rows, err := csvio.Read(f)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return header, rows, nil
}
