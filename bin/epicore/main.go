package main

import (
	"flag"
	"log"
	"path/filepath"
	"runtime"
	"time"

	"github.com/flugstein/epicore"
)

func main() {
	numCPUPtr := flag.Int("threads", runtime.NumCPU(), "max number of replicates run concurrently")
	loggerType := flag.String("logger", "csv", "telemetry sink type (csv|sqlite)")
	seedPtr := flag.Int64("seed", 0, "base seed; overrides the seed in the config file when nonzero")
	verbose := flag.Bool("v", false, "log the run parameters before starting")
	flag.Parse()

	configPath := flag.Arg(0)
	if configPath == "" {
		log.Fatal("usage: epicore [flags] <config.toml>")
	}

	cfg, err := epicore.LoadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}

	driver, err := epicore.NewRunDriver(cfg)
	if err != nil {
		log.Fatal(err)
	}

	baseSeed := cfg.Simulation.Seed
	if *seedPtr != 0 {
		baseSeed = *seedPtr
	}

	newWriter := func(tag string) (epicore.TelemetryWriter, error) {
		base := cfg.Logging.LogPath
		switch *loggerType {
		case "csv":
			return epicore.NewCSVWriter(filepath.Join(base, tag+".csv"), locationTypeNames(cfg)), nil
		case "sqlite":
			return epicore.NewSQLiteWriter(filepath.Join(base, "telemetry.db"), tag)
		default:
			log.Fatalf("%s is not a valid logger type (csv|sqlite)", *loggerType)
			return nil, nil
		}
	}

	if *verbose {
		log.Printf("starting %d instance(s) of %d round(s) each, %d worker(s)\n", cfg.Simulation.NumInstances, cfg.Simulation.NumRounds, *numCPUPtr)
	}
	start := time.Now()
	err = driver.Run(cfg.Simulation.NumInstances, cfg.Simulation.NumRounds, baseSeed, *numCPUPtr, newWriter)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("completed %d instance(s) in %s\n", cfg.Simulation.NumInstances, time.Since(start))
}

func locationTypeNames(cfg *epicore.Config) []string {
	names := make([]string, 0, len(cfg.Locations))
	for typ := range cfg.Locations {
		names = append(names, typ)
	}
	defaults := []string{"supermarket", "shop", "restaurant", "leisure", "nightlife"}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	for _, d := range defaults {
		if !seen[d] {
			names = append(names, d)
		}
	}
	return names
}
