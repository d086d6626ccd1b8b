package command

import (
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"runtime/pprof"
	"sort"
	"strings"
	"time"

	"github.com/viniciusth/dedupe"
	"github.com/viniciusth/dedupe/internal/render"

	"github.com/nuclio/errors"
	"github.com/spf13/cobra"
)

const defaultBenchMinLength = 10

type variant struct {
	name string
	run  func(minLength int, text string)
}

var variants = map[string]variant{
	"deduplicate": {name: "deduplicate", run: func(minLength int, text string) { dedupe.Deduplicate(minLength, text) }},
	"trace":       {name: "trace", run: func(minLength int, text string) { dedupe.DeduplicateWithTrace(minLength, text) }},
	"suffix":      {name: "suffix", run: func(_ int, text string) { dedupe.SuffixArray(text) }},
	"index":       {name: "index", run: func(_ int, text string) { dedupe.NewIndex(text) }},
}

type densityType string

const (
	densityLow  densityType = "low"
	densityHigh densityType = "high"
)

type benchCommandeer struct {
	cmd            *cobra.Command
	rootCommandeer *RootCommandeer
	variantNames   []string
	size           int
	steps          int
	runs           int
	density        string
	cpuProfilePath string
}

func newBenchCommandeer(rootCommandeer *RootCommandeer) *benchCommandeer {
	commandeer := &benchCommandeer{
		rootCommandeer: rootCommandeer,
	}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure deduplication time and memory on generated text of doubling sizes",
		RunE: func(cmd *cobra.Command, args []string) error {
			minLength := defaultBenchMinLength
			if rootCommandeer.minLength != "" {
				var err error
				if minLength, err = parseMinLength(rootCommandeer.minLength); err != nil {
					return err
				}
			}

			if commandeer.size <= 0 || commandeer.steps <= 0 || commandeer.runs <= 0 {
				return errors.New("Size, steps and runs must be positive")
			}

			density := densityType(commandeer.density)
			if density != densityLow && density != densityHigh {
				return errors.New("Invalid density - must be low / high")
			}

			selected := make([]variant, 0, len(commandeer.variantNames))
			for _, variantName := range commandeer.variantNames {
				v, ok := variants[variantName]
				if !ok {
					return errors.Errorf("Invalid variant %s - must be one of %s", variantName, strings.Join(variantNames(), " / "))
				}
				selected = append(selected, v)
			}

			if err := rootCommandeer.initialize(cmd.ErrOrStderr()); err != nil {
				return errors.Wrap(err, "Failed to initialize root")
			}

			if commandeer.cpuProfilePath != "" {
				profile, err := os.Create(commandeer.cpuProfilePath)
				if err != nil {
					return errors.Wrap(err, "Failed to create CPU profile")
				}
				defer profile.Close() // nolint: errcheck

				if err := pprof.StartCPUProfile(profile); err != nil {
					return errors.Wrap(err, "Failed to start CPU profile")
				}
				defer pprof.StopCPUProfile()
			}

			records := commandeer.runBenchmark(selected, minLength, density)
			render.NewRenderer(cmd.OutOrStdout()).RenderTable(
				[]interface{}{"Variant", "Size", "Density", "Time (ms)", "Ratio", "ns/char", "Peak (KiB)", "Retained (KiB)"},
				records)

			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&commandeer.variantNames, "variant", "", []string{"deduplicate"}, "Variants to benchmark - "+strings.Join(variantNames(), " / "))
	cmd.Flags().IntVarP(&commandeer.size, "size", "s", 10_000, "Size of the smallest generated text, in code points")
	cmd.Flags().IntVarP(&commandeer.steps, "steps", "", 5, "Number of sizes, each double the previous")
	cmd.Flags().IntVarP(&commandeer.runs, "runs", "r", 3, "Number of runs for averaging")
	cmd.Flags().StringVarP(&commandeer.density, "density", "", string(densityLow), "Density of repeats: low or high")
	cmd.Flags().StringVarP(&commandeer.cpuProfilePath, "cpuprofile", "", "", "Write CPU profile to file")

	commandeer.cmd = cmd

	return commandeer
}

func (bc *benchCommandeer) runBenchmark(selected []variant, minLength int, density densityType) [][]interface{} {
	var records [][]interface{}

	for _, v := range selected {
		var previous time.Duration
		size := bc.size

		for step := 0; step < bc.steps; step++ {
			text := generateText(rand.New(rand.NewSource(int64(step))), size, density)

			// warm up
			v.run(minLength, text)

			var total time.Duration
			var peak, retained uint64
			for run := 0; run < bc.runs; run++ {
				duration, runPeak, runRetained := measure(func() { v.run(minLength, text) })
				total += duration
				peak = max(peak, runPeak)
				retained = max(retained, runRetained)
			}
			average := total / time.Duration(bc.runs)

			ratio := "-"
			if previous > 0 {
				ratio = fmt.Sprintf("%.2fx", float64(average)/float64(previous))
			}

			bc.rootCommandeer.loggerInstance.DebugWith("Measured variant",
				"variant", v.name,
				"size", size,
				"average", average)

			records = append(records, []interface{}{
				v.name,
				size,
				density,
				fmt.Sprintf("%.1f", float64(average.Microseconds())/1000),
				ratio,
				fmt.Sprintf("%.1f", float64(average.Nanoseconds())/float64(size)),
				peak / 1024,
				retained / 1024,
			})

			previous = average
			size *= 2
		}
	}

	return records
}

// generateText returns size random code points. High density text is built
// from a few repeated sentences so that long duplicates are common.
func generateText(r *rand.Rand, size int, density densityType) string {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 \n"

	randomRunes := func(length int) []rune {
		runes := make([]rune, length)
		for i := range runes {
			runes[i] = rune(chars[r.Intn(len(chars))])
		}
		return runes
	}

	if density == densityLow {
		return string(randomRunes(size))
	}

	sentences := make([][]rune, 8)
	for i := range sentences {
		sentences[i] = randomRunes(64 + r.Intn(192))
	}

	text := make([]rune, 0, size+256)
	for len(text) < size {
		if r.Intn(4) == 0 {
			text = append(text, randomRunes(1+r.Intn(32))...)
		} else {
			text = append(text, sentences[r.Intn(len(sentences))]...)
		}
	}
	return string(text[:size])
}

// measure runs fn and returns its duration, the peak heap allocation seen
// while it ran and the heap retained after it.
func measure(fn func()) (time.Duration, uint64, uint64) {
	runtime.GC()
	mm := newMemMonitor()
	start := time.Now()
	fn()
	duration := time.Since(start)
	peak := mm.Stop()
	runtime.GC()
	return duration, peak, getCurrentAlloc()
}

type memMonitor struct {
	maxAlloc uint64
	stop     chan struct{}
	done     chan struct{}
}

func newMemMonitor() *memMonitor {
	mm := &memMonitor{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go func() {
		defer close(mm.done)
		for {
			if alloc := getCurrentAlloc(); alloc > mm.maxAlloc {
				mm.maxAlloc = alloc
			}
			select {
			case <-mm.stop:
				return
			case <-time.After(10 * time.Millisecond):
			}
		}
	}()
	return mm
}

// Stop ends sampling and returns the peak allocation seen.
func (mm *memMonitor) Stop() uint64 {
	close(mm.stop)
	<-mm.done
	return mm.maxAlloc
}

func getCurrentAlloc() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Alloc
}

func variantNames() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
