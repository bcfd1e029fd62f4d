// Command genradar synthesizes a radar count stack for testing and
// demos: a Gaussian rain cell drifting across the grid, written as a
// (frames, size, size) .npy file. It uses the actual grid and adapter
// packages so fixtures match real pipeline input.
//
// Usage:
//
//	go run ./cmd/genradar -out data/demo-input.npy -size 256 -frames 6 -peak 120
//
// A peak of 0 produces an all-dry stack, useful for exercising the
// gate-closed path.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/stormdrift/nowcast/internal/adapter/npyfile"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output .npy path")
	size := flag.Int("size", 256, "grid edge length")
	frames := flag.Int("frames", 6, "number of frames in the stack")
	peak := flag.Float64("peak", 120, "peak count value at the cell center (0 = dry stack)")
	width := flag.Float64("width", 0.1, "cell width as a fraction of the grid edge")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *size < 2 || *frames < 1 {
		return fmt.Errorf("size %d / frames %d out of range", *size, *frames)
	}

	n := *size
	data := make([]float64, *frames*n*n)
	sigma := *width * float64(n)

	// The cell drifts from the left third toward the center so motion
	// estimation has something to latch onto.
	for t := 0; t < *frames; t++ {
		ci := float64(n) / 2
		cj := float64(n)/3 + float64(t)*sigma/2
		base := t * n * n
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				di := float64(i) - ci
				dj := float64(j) - cj
				data[base+i*n+j] = *peak * math.Exp(-(di*di+dj*dj)/(2*sigma*sigma))
			}
		}
	}

	if err := npyfile.WriteArray(*out, []int{*frames, n, n}, data); err != nil {
		return err
	}
	fmt.Printf("wrote %s: %d frames of %dx%d, peak %g\n", *out, *frames, n, n, *peak)
	return nil
}
