package main

import (
	"fmt"
	"io"
	"os"

	"github.com/openfluke/warp/config"
	"github.com/openfluke/warp/detector"
	"github.com/openfluke/warp/gpu"
	"github.com/openfluke/warp/kernels"
)

// arrayLength is fixed: the harness demonstrates the dispatch path,
// not array-size generality.
const arrayLength = 4096

const configPath = "warp.toml"

func main() {
	cfg, err := config.Load(configPath)
	if err != nil {
		fatal(err)
	}

	gpu.Debug = cfg.Run.Debug
	gpu.ForceAdapter = cfg.Adapter.Force
	gpu.PowerPreference = cfg.Adapter.Power
	gpu.ReadTimeout = cfg.ReadTimeout()

	if cfg.Run.Debug {
		report, err := detector.DetectJSON()
		if err != nil {
			fatal(fmt.Errorf("failed to probe adapter: %v", err))
		}
		fmt.Println(report)
	}

	ctx, err := gpu.GetContext()
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Using GPU adapter: %s\n", ctx.AdapterName())

	job := gpu.NewElementwiseJob(arrayLength)
	if err := job.Build(); err != nil {
		fatal(err)
	}
	defer job.Cleanup()

	a := gpu.RandomFloats(arrayLength)
	b := gpu.RandomFloats(arrayLength)

	// One command buffer, two dispatches, blocking wait.
	product, sum, err := job.Run(a, b)
	if err != nil {
		fatal(err)
	}

	printComparison(os.Stdout, a, b, product, sum)

	if err := kernels.Verify(a, b, product, sum); err != nil {
		fatal(err)
	}
	fmt.Println("Compute results as expected.")
	fmt.Println("Computation complete.")
}

// printComparison writes one sum line and one product line per index.
func printComparison(w io.Writer, a, b, product, sum []float32) {
	for i := range a {
		fmt.Fprintf(w, "%d:%g+%g=%g\n", i, a[i], b[i], sum[i])
		fmt.Fprintf(w, "  :%g*%g=%g\n", a[i], b[i], product[i])
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
