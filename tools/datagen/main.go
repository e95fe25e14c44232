package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
)

// Generates a synthetic sensor feed. Most machines hover around nominal
// values; a few drift hot or build vibration so the output exercises every
// alert path.
func main() {
	machines := flag.Int("machines", 5, "number of machines")
	rows := flag.Int("rows", 1000, "total readings to generate")
	seed := flag.Int64("seed", 42, "rng seed")
	out := flag.String("out", "data/sensor_data.csv", "output csv path")
	flag.Parse()

	if *machines <= 0 || *rows <= 0 {
		log.Fatal("machines and rows must be positive")
	}

	if dir := filepath.Dir(*out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("mkdir error: %v", err)
		}
	}
	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("create error: %v", err)
	}
	defer f.Close()

	rng := rand.New(rand.NewSource(*seed))
	writer := csv.NewWriter(f)
	defer writer.Flush()

	if err := writer.Write([]string{"machine_id", "temperature", "vibration", "timestamp"}); err != nil {
		log.Fatalf("write error: %v", err)
	}

	// Per-machine state: base temperature around 300 K, base vibration
	// around 1500 RPM. Machine 0 drifts hot, machine 1 builds vibration.
	baseTemp := make([]float64, *machines)
	baseVib := make([]float64, *machines)
	for i := range baseTemp {
		baseTemp[i] = 298 + rng.Float64()*6
		baseVib[i] = 1300 + rng.Float64()*400
	}

	for i := 0; i < *rows; i++ {
		machine := i % *machines
		temp := baseTemp[machine] + rng.NormFloat64()*1.5
		vib := baseVib[machine] + rng.NormFloat64()*60

		switch machine {
		case 0:
			baseTemp[machine] += 0.02 // slow thermal drift
		case 1:
			baseVib[machine] += 0.4 // bearing wear
		}
		// Occasional spikes on every machine.
		if rng.Float64() < 0.01 {
			temp += 20 + rng.Float64()*10
		}
		if rng.Float64() < 0.01 {
			vib += 600 + rng.Float64()*200
		}

		record := []string{
			strconv.Itoa(machine),
			strconv.FormatFloat(temp, 'f', 2, 64),
			strconv.FormatFloat(vib, 'f', 1, 64),
			strconv.Itoa(i),
		}
		if err := writer.Write(record); err != nil {
			log.Fatalf("write error: %v", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Fatalf("flush error: %v", err)
	}
	fmt.Printf("wrote %d readings for %d machines to %s\n", *rows, *machines, *out)
}
