// Command replay feeds an archived session back through the heart-rate
// engine offline and prints one line per batch.
//
//	replay --file sessions/wrist-01_20250301T080000Z.csv --batch 500
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"pulse_monitor/internal/archive"
	"pulse_monitor/internal/config"
	"pulse_monitor/internal/engine"
	"pulse_monitor/internal/logger"

	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
)

const defaultBatch = 500

func main() {
	file := flag.StringP("file", "f", "", "archived session to replay (one sample per line)")
	batch := flag.IntP("batch", "b", defaultBatch, "samples per batch")
	cfgPath := flag.StringP("config", "c", "", "config file for engine settings (defaults when empty)")
	flag.Parse()

	log := logger.Get("info", "console")
	defer func() { _ = log.Sync() }()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	fs := afero.NewOsFs()
	cfg, err := config.Load(fs, *cfgPath)
	if err != nil {
		log.Fatalw("error reading config", "err", err)
	}

	f, err := fs.Open(*file)
	if err != nil {
		log.Fatalw("open archive", "file", *file, "err", err)
	}
	samples, err := archive.ReadSamples(f)
	_ = f.Close()
	if err != nil {
		log.Fatalw("parse archive", "file", *file, "err", err)
	}

	n, err := replay(os.Stdout, samples, cfg.Engine, *batch, time.Now().UTC())
	if err != nil {
		log.Fatalw("replay failed", "err", err)
	}
	log.Infow("replay finished", "file", *file, "samples", len(samples), "batches", n)
}

// replay runs samples through a fresh engine in batches of size batch,
// advancing the clock by the batch duration at the configured sample rate.
// It returns the number of batches processed.
func replay(w io.Writer, samples []int, cfg engine.Config, batch int, start time.Time) (int, error) {
	if batch <= 0 {
		return 0, fmt.Errorf("batch must be positive, got %d", batch)
	}
	if cfg.SampleRateHz <= 0 {
		return 0, fmt.Errorf("sample rate must be positive, got %d", cfg.SampleRateHz)
	}

	eng := engine.New(cfg)
	step := time.Duration(batch) * time.Second / time.Duration(cfg.SampleRateHz)
	now := start

	if _, err := fmt.Fprintln(w, "batch\telapsed\tphase\tbpm\tzone\tconfidence\tstable\treason"); err != nil {
		return 0, err
	}
	count := 0
	for off := 0; off < len(samples); off += batch {
		end := off + batch
		if end > len(samples) {
			end = len(samples)
		}
		res := eng.ProcessBatch(samples[off:end], now)
		count++
		_, err := fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%.2f\t%t\t%s\n",
			count, now.Sub(start), res.Phase, res.HeartRate, res.Zone,
			res.Confidence, res.IsStable, res.Debug.Reason)
		if err != nil {
			return count, err
		}
		now = now.Add(step)
	}
	return count, nil
}
