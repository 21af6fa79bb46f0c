package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/ocr-enhance/internal/autoselect"
	"github.com/ironsheep/ocr-enhance/internal/batch"
	"github.com/ironsheep/ocr-enhance/internal/enhance"
	imgutil "github.com/ironsheep/ocr-enhance/internal/imaging"
	"github.com/ironsheep/ocr-enhance/internal/logger"
	"github.com/ironsheep/ocr-enhance/internal/params"
	"github.com/ironsheep/ocr-enhance/internal/preview"
	"github.com/ironsheep/ocr-enhance/internal/report"
)

// outputFlags are shared by the commands that enhance a file or directory.
type outputFlags struct {
	output     string
	recursive  bool
	compare    bool
	plot       bool
	saveParams string
}

func (o *outputFlags) register(fs *flag.FlagSet, plotShort bool) {
	stringFlag(fs, &o.output, []string{"o", "output-path"}, "", "output file or directory (default: beside the input with the configured suffix)")
	boolFlag(fs, &o.recursive, []string{"r", "recursive"}, "process subdirectories when the input is a directory")
	boolFlag(fs, &o.compare, []string{"c", "compare"}, "also write a side-by-side comparison image")
	plotNames := []string{"plot"}
	if plotShort {
		plotNames = append(plotNames, "p")
	}
	boolFlag(fs, &o.plot, plotNames, "also write a metrics plot (single images only)")
	fs.StringVar(&o.saveParams, "save-params", "", "write the parameters used to this .json/.yaml file")
}

func (a *app) runAuto(ctx context.Context, args []string) error {
	fs, apply := a.newFlagSet("auto", "<input>")
	var out outputFlags
	out.register(fs, true)
	pos, err := parseCommand(fs, apply, args, 1)
	if err != nil {
		return err
	}
	return a.enhanceTarget(ctx, pos[0], &out, batch.Auto, params.ParameterSet{})
}

// manualFlags are the per-field overrides of the manual command.
type manualFlags struct {
	brightness, contrast, sharpness, color, resize float64
	denoise, binarize, deskew, perspective         bool
	threshold                                      int
	paramsFile                                     string
}

func (m *manualFlags) register(fs *flag.FlagSet) {
	for _, n := range []string{"b", "brightness"} {
		fs.Float64Var(&m.brightness, n, 1.0, "brightness factor (0.5-1.5)")
	}
	fs.Float64Var(&m.contrast, "contrast", 1.0, "contrast factor (0.5-2.0)")
	for _, n := range []string{"s", "sharpness"} {
		fs.Float64Var(&m.sharpness, n, 1.0, "sharpness factor (0.0-2.0, below 1 blurs)")
	}
	fs.Float64Var(&m.color, "color", 1.0, "color saturation (0.0-2.0, 0 = grayscale)")
	fs.BoolVar(&m.denoise, "denoise", false, "apply a 3x3 median filter")
	fs.BoolVar(&m.binarize, "binarize", false, "convert to black and white")
	fs.IntVar(&m.threshold, "binarize-threshold", params.DefaultThreshold, "binarize threshold (0-255)")
	fs.BoolVar(&m.deskew, "deskew", false, "level rotated text lines")
	fs.BoolVar(&m.perspective, "perspective", false, "flatten a photographed page")
	fs.Float64Var(&m.resize, "resize-factor", 0, "scale factor applied last, up to 8, e.g. 1.5")
	fs.StringVar(&m.paramsFile, "params-file", "", "start from this .json/.yaml parameter file")
}

// resolve starts from the parameter file (or the identity set) and applies
// only the flags given on the command line.
func (m *manualFlags) resolve(fs *flag.FlagSet) (params.ParameterSet, error) {
	base := params.Default()
	if m.paramsFile != "" {
		p, err := params.Load(m.paramsFile)
		if err != nil {
			return params.ParameterSet{}, err
		}
		base = p
	}

	var opts []params.Option
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "b", "brightness":
			opts = append(opts, params.WithBrightness(m.brightness))
		case "contrast":
			opts = append(opts, params.WithContrast(m.contrast))
		case "s", "sharpness":
			opts = append(opts, params.WithSharpness(m.sharpness))
		case "color":
			opts = append(opts, params.WithColor(m.color))
		case "denoise":
			opts = append(opts, params.WithDenoise(m.denoise))
		case "binarize":
			opts = append(opts, params.WithBinarize(m.binarize))
		case "binarize-threshold":
			opts = append(opts, params.WithThreshold(m.threshold))
		case "deskew":
			opts = append(opts, params.WithDeskew(m.deskew))
		case "perspective":
			opts = append(opts, params.WithPerspective(m.perspective))
		case "resize-factor":
			opts = append(opts, params.WithResize(m.resize))
		}
	})
	return base.With(opts...)
}

func (a *app) runManual(ctx context.Context, args []string) error {
	fs, apply := a.newFlagSet("manual", "<input>")
	var out outputFlags
	var m manualFlags
	out.register(fs, true)
	m.register(fs)
	pos, err := parseCommand(fs, apply, args, 1)
	if err != nil {
		return err
	}
	p, err := m.resolve(fs)
	if err != nil {
		return err
	}
	return a.enhanceTarget(ctx, pos[0], &out, batch.Manual, p)
}

func (a *app) runPreset(ctx context.Context, args []string) error {
	fs, apply := a.newFlagSet("preset", "<input>")
	var out outputFlags
	out.register(fs, false)
	var id int
	for _, n := range []string{"p", "preset"} {
		fs.IntVar(&id, n, params.PresetMixed, presetUsage())
	}
	pos, err := parseCommand(fs, apply, args, 1)
	if err != nil {
		return err
	}

	if id < 0 || id >= params.PresetCount() {
		logger.WithField("preset", id).Warn("unknown preset, using " + params.PresetName(params.PresetMixed))
	}
	fmt.Fprintf(a.stdout, "Applying preset: %s\n", params.PresetName(id))
	return a.enhanceTarget(ctx, pos[0], &out, batch.Manual, params.Preset(id))
}

func presetUsage() string {
	names := make([]string, params.PresetCount())
	for i := range names {
		names[i] = fmt.Sprintf("%d=%s", i, params.PresetName(i))
	}
	return "built-in preset (" + strings.Join(names, ", ") + ")"
}

// enhanceTarget enhances a single file, or hands a directory to the batch
// driver. p is ignored in Auto mode.
func (a *app) enhanceTarget(ctx context.Context, input string, out *outputFlags, mode batch.Mode, p params.ParameterSet) error {
	info, err := os.Stat(input)
	if err != nil {
		return fmt.Errorf("input not found: %w", err)
	}

	if info.IsDir() {
		if out.plot {
			logger.Warn("--plot is ignored for directory input")
		}
		if out.saveParams != "" {
			if mode == batch.Auto {
				logger.Warn("--save-params is ignored for directory input in auto mode")
			} else if err := a.saveParams(p, out.saveParams); err != nil {
				return err
			}
		}
		dst := out.output
		if dst == "" {
			dst = input
		}
		return a.runDirectory(ctx, batch.Options{
			InputDir:  input,
			OutputDir: dst,
			Recursive: out.recursive,
			Mode:      mode,
			Params:    p,
			Suffix:    a.cfg.Suffix,
			Workers:   a.cfg.Workers,
			Compare:   out.compare,
		})
	}

	img, err := imgutil.Load(input)
	if err != nil {
		return err
	}
	if mode == batch.Auto {
		if p, err = autoselect.Select(img); err != nil {
			return err
		}
	}

	enhanced, err := enhance.Enhance(img, p)
	if err != nil {
		return err
	}
	dst := singleOutputPath(input, out.output, a.cfg.Suffix)
	if err := imgutil.Save(enhanced, dst); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%s\n", report.Describe(p))
	fmt.Fprintf(a.stdout, "Saved: %s\n", dst)
	logger.WithFields(logrus.Fields{
		"input":  input,
		"output": dst,
		"mode":   mode.String(),
		"stages": strings.Join(enhance.Plan(p), ","),
	}).Info("image enhanced")

	r := report.EnhancementReport{Original: img, Enhanced: enhanced, Params: p}
	stem := strings.TrimSuffix(dst, filepath.Ext(dst))
	if out.compare {
		path := stem + "_comparison.png"
		if err := imgutil.Save(report.Comparison(r, filepath.Base(input)), path); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Saved comparison: %s\n", path)
	}
	if out.plot {
		path := stem + "_metrics.png"
		if err := imgutil.Save(report.Plot(r), path); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Saved metrics plot: %s\n", path)
	}
	if out.saveParams != "" {
		return a.saveParams(p, out.saveParams)
	}
	return nil
}

func (a *app) saveParams(p params.ParameterSet, path string) error {
	if err := params.Save(p, path); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Saved parameters: %s\n", path)
	return nil
}

// singleOutputPath places the result beside the input when out is empty,
// inside out when it is an existing directory, and at out otherwise.
func singleOutputPath(input, out, suffix string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name := base + suffix + imgutil.OutputExt(input)
	if out == "" {
		return filepath.Join(filepath.Dir(input), name)
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, name)
	}
	return out
}

func (a *app) runBatch(ctx context.Context, args []string) error {
	fs, apply := a.newFlagSet("batch", "<input-dir>")
	var (
		outDir, modeName, paramsFile string
		recursive, compare           bool
		workers                      int
	)
	stringFlag(fs, &outDir, []string{"o", "output-dir"}, "", "output directory (required)")
	fs.StringVar(&modeName, "mode", "auto", "parameter selection: auto or manual")
	fs.StringVar(&paramsFile, "params-file", "", "parameter file for manual mode")
	boolFlag(fs, &recursive, []string{"r", "recursive"}, "process subdirectories")
	boolFlag(fs, &compare, []string{"c", "compare"}, "also write comparison images under comparisons/")
	fs.IntVar(&workers, "workers", 0, "parallel workers (default from the environment or the CPU count)")
	pos, err := parseCommand(fs, apply, args, 1)
	if err != nil {
		return err
	}

	if outDir == "" {
		fs.Usage()
		return usagef("--output-dir is required")
	}
	mode, err := batch.ParseMode(modeName)
	if err != nil {
		return &usageError{msg: err.Error()}
	}
	if workers < 0 {
		return usagef("--workers must be positive")
	}
	if workers == 0 {
		workers = a.cfg.Workers
	}

	p := params.Default()
	switch {
	case paramsFile != "" && mode == batch.Auto:
		return usagef("--params-file requires --mode manual")
	case paramsFile != "":
		if p, err = params.Load(paramsFile); err != nil {
			return err
		}
	}

	return a.runDirectory(ctx, batch.Options{
		InputDir:  pos[0],
		OutputDir: outDir,
		Recursive: recursive,
		Mode:      mode,
		Params:    p,
		Suffix:    a.cfg.Suffix,
		Workers:   workers,
		Compare:   compare,
	})
}

// runDirectory runs the batch driver and reports per-file results. It
// fails only when the run could not start, was cancelled, or every file
// failed.
func (a *app) runDirectory(ctx context.Context, opts batch.Options) error {
	res, err := batch.Run(ctx, opts)
	if res == nil {
		return err
	}

	for _, it := range res.Items {
		switch {
		case it.Err != nil:
			fmt.Fprintf(a.stderr, "Failed: %v\n", it.Err)
		case it.Skipped:
		default:
			fmt.Fprintf(a.stdout, "Saved: %s\n", it.Output)
		}
	}
	if len(res.Items) == 0 {
		fmt.Fprintln(a.stdout, "No supported image files found.")
		return nil
	}
	fmt.Fprintf(a.stdout, "Enhanced %d of %d image(s) in %s mode (%d failed, %d skipped).\n",
		res.Succeeded, len(res.Items), opts.Mode, res.Failed, res.Skipped)

	if err != nil {
		return err
	}
	if res.AllFailed() {
		return fmt.Errorf("all %d image(s) failed", len(res.Items))
	}
	return nil
}

func (a *app) runPreview(_ context.Context, args []string) error {
	fs, apply := a.newFlagSet("preview", "<input>")
	var output string
	stringFlag(fs, &output, []string{"o", "output-path"}, "", "where to write the preview grid (required)")
	pos, err := parseCommand(fs, apply, args, 1)
	if err != nil {
		return err
	}
	if output == "" {
		fs.Usage()
		return usagef("--output-path is required")
	}

	img, err := imgutil.Load(pos[0])
	if err != nil {
		return err
	}
	grid, err := preview.Build(img)
	if err != nil {
		return err
	}
	if err := imgutil.Save(grid.Image, output); err != nil {
		return err
	}
	for _, v := range grid.Variants {
		fmt.Fprintf(a.stdout, "%-17s %s\n", v.Label, v.Params)
	}
	fmt.Fprintf(a.stdout, "Saved preview grid: %s\n", output)
	return nil
}
