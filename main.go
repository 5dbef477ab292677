package main

import (
	"bufio"
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"time"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/arvoss/go-pathtracer/pkg/config"
	"github.com/arvoss/go-pathtracer/pkg/estimator"
	"github.com/arvoss/go-pathtracer/pkg/film"
	"github.com/arvoss/go-pathtracer/pkg/renderer"
	"github.com/arvoss/go-pathtracer/pkg/scene"
)

func main() {
	configPath := flag.String("config", "", "YAML render configuration file")
	widthPx := flag.Int("width", 0, "override output width in pixels")
	heightPx := flag.Int("height", 0, "override output height in pixels")
	spp := flag.Int("spp", 0, "override samples per pixel")
	estimatorName := flag.String("estimator", "", "override estimator (bvpt, bneept, bvptdl)")
	output := flag.String("output", "", "override output image path")
	cpuProfile := flag.String("cpuprofile", "", "write a CPU profile to this file")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	applyOverrides(&cfg, *widthPx, *heightPx, *spp, *estimatorName, *output)

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func applyOverrides(cfg *config.Render, widthPx, heightPx, spp int, estimatorName, output string) {
	if widthPx > 0 {
		cfg.WidthPx = widthPx
	}
	if heightPx > 0 {
		cfg.HeightPx = heightPx
	}
	if spp > 0 {
		cfg.SamplesPerPixel = spp
	}
	if estimatorName != "" {
		cfg.Estimator = estimatorName
	}
	if output != "" {
		cfg.Output = output
	}
}

func run(cfg config.Render) error {
	startTime := time.Now()

	sceneRef, err := buildScene(cfg)
	if err != nil {
		return err
	}

	driver := renderer.New(driverConfig(cfg), estimatorFactory(cfg), nil)
	if err := driver.Update(sceneRef); err != nil {
		return err
	}
	if err := driver.Render(context.Background()); err != nil {
		return err
	}

	frame := driver.Develop()
	fmt.Printf("render completed in %v (%d samples)\n", time.Since(startTime), driver.NumSamplesTaken())

	if err := writeOutput(cfg.Output, frame); err != nil {
		return err
	}
	fmt.Printf("render saved as %s\n", cfg.Output)
	return nil
}

func buildScene(cfg config.Render) (*scene.Scene, error) {
	switch cfg.Scene {
	case "", "cornell":
		return scene.BuildCornell(scene.DefaultCornellOptions(cfg.WidthPx, cfg.HeightPx)), nil
	default:
		return nil, fmt.Errorf("unknown scene %q", cfg.Scene)
	}
}

func driverConfig(cfg config.Render) renderer.Config {
	driverCfg := renderer.DefaultConfig(cfg.WidthPx, cfg.HeightPx, cfg.SamplesPerPixel)
	driverCfg.NumWorkers = cfg.NumWorkers
	driverCfg.TileSize = cfg.TileSize
	driverCfg.BaseSeed = cfg.Seed
	driverCfg.Scheduler = renderer.SchedulerType(cfg.Scheduler)
	driverCfg.PrecisionStandard = cfg.Precision

	switch cfg.Filter {
	case "box":
		driverCfg.Filter = film.NewBoxFilter(0.5)
	case "blackman-harris":
		driverCfg.Filter = film.NewBlackmanHarrisFilter(1.5)
	default:
		driverCfg.Filter = film.NewGaussianFilter(1.0, 4.0)
	}
	return driverCfg
}

func estimatorFactory(cfg config.Render) renderer.EstimatorFactory {
	switch cfg.Estimator {
	case "bvpt":
		return func() estimator.Estimator { return estimator.NewBvpt(cfg.MaxBounces, cfg.RRMinBounces) }
	case "bvptdl":
		return func() estimator.Estimator { return estimator.NewBvptdl() }
	default:
		return func() estimator.Estimator { return estimator.NewBneept(cfg.MaxBounces, cfg.RRMinBounces) }
	}
}

// writeOutput writes a PFM HDR dump for .pfm paths and a PNG otherwise
func writeOutput(path string, frame *film.HdrRgbFrame) error {
	if strings.EqualFold(filepath.Ext(path), ".pfm") {
		return writePfm(path, frame)
	}
	return writePng(path, frame)
}

// writePng tone-maps the linear frame to 8-bit sRGB
func writePng(path string, frame *film.HdrRgbFrame) error {
	img := image.NewRGBA(image.Rect(0, 0, frame.WidthPx, frame.HeightPx))
	for y := 0; y < frame.HeightPx; y++ {
		for x := 0; x < frame.WidthPx; x++ {
			value := frame.Pixel(x, y).Clamp(0, 1)
			c := colorful.LinearRgb(value[0], value[1], value[2]).Clamped()
			r, g, b := c.RGB255()
			// Frame origin is lower-left; image origin is top-left
			img.SetRGBA(x, frame.HeightPx-1-y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return png.Encode(file, img)
}

// writePfm writes the raw float32 frame as a little-endian PFM
func writePfm(path string, frame *film.HdrRgbFrame) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	defer writer.Flush()

	// Negative scale marks little-endian; PFM rows run bottom-to-top, which
	// matches the frame layout directly.
	fmt.Fprintf(writer, "PF\n%d %d\n-1.0\n", frame.WidthPx, frame.HeightPx)
	for _, v := range frame.Data {
		if err := binary.Write(writer, binary.LittleEndian, math.Float32bits(v)); err != nil {
			return err
		}
	}
	return nil
}
