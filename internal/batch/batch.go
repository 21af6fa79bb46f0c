// Package batch enhances every supported image under a directory tree with
// a pool of workers, mirroring the tree under an output directory.
package batch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/ocr-enhance/internal/autoselect"
	"github.com/ironsheep/ocr-enhance/internal/config"
	"github.com/ironsheep/ocr-enhance/internal/enhance"
	imgutil "github.com/ironsheep/ocr-enhance/internal/imaging"
	"github.com/ironsheep/ocr-enhance/internal/logger"
	"github.com/ironsheep/ocr-enhance/internal/params"
	"github.com/ironsheep/ocr-enhance/internal/report"
)

// ComparisonsDir is the subdirectory of the output directory that receives
// comparison images.
const ComparisonsDir = "comparisons"

// Mode selects how each image's parameters are chosen.
type Mode int

const (
	// Auto runs the auto-selector on every image.
	Auto Mode = iota
	// Manual applies Options.Params to every image.
	Manual
)

func (m Mode) String() string {
	if m == Manual {
		return "manual"
	}
	return "auto"
}

// ParseMode accepts "auto" and "manual".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "auto":
		return Auto, nil
	case "manual":
		return Manual, nil
	}
	return Auto, fmt.Errorf("unknown mode %q (want auto or manual)", s)
}

// Options configures Run.
type Options struct {
	InputDir  string
	OutputDir string
	Recursive bool
	Mode      Mode
	Params    params.ParameterSet // used in Manual mode
	Suffix    string              // default "_enhanced"
	Workers   int                 // default runtime.NumCPU()
	Compare   bool                // also write comparison images
}

// BatchItemError records the failure of one file. Other files are
// unaffected.
type BatchItemError struct {
	Path string
	Err  error
}

func (e *BatchItemError) Error() string {
	return fmt.Sprintf("batch item %s: %v", e.Path, e.Err)
}

func (e *BatchItemError) Unwrap() error {
	return e.Err
}

// Item is the outcome for one discovered file.
type Item struct {
	Input      string              `json:"input"`
	Output     string              `json:"output,omitempty"`
	Comparison string              `json:"comparison,omitempty"`
	Params     params.ParameterSet `json:"-"`
	Stages     []string            `json:"stages,omitempty"`
	Duration   time.Duration       `json:"duration"`
	Skipped    bool                `json:"skipped,omitempty"`
	Err        *BatchItemError     `json:"-"`
}

// Result lists every discovered file in discovery order.
type Result struct {
	Items     []Item `json:"items"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
}

// Errors returns the per-file errors in discovery order.
func (r *Result) Errors() []*BatchItemError {
	var errs []*BatchItemError
	for _, it := range r.Items {
		if it.Err != nil {
			errs = append(errs, it.Err)
		}
	}
	return errs
}

// AllFailed reports whether files were found and none succeeded.
func (r *Result) AllFailed() bool {
	return len(r.Items) > 0 && r.Succeeded == 0
}

// Discover lists the supported image files under root in lexical order.
// Subdirectories are searched only when recursive is set.
func Discover(root string, recursive bool) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input %s is not a directory", root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && imgutil.IsSupported(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// OutputPath mirrors path, a file under root, into outDir as
// <base><suffix><ext>. WebP and GIF inputs are written as PNG.
func OutputPath(root, outDir, path, suffix string) (string, error) {
	return mirror(root, outDir, path, baseName(path)+suffix+imgutil.OutputExt(path))
}

// ComparisonPath mirrors path into outDir/comparisons as
// <base>_comparison.png.
func ComparisonPath(root, outDir, path string) (string, error) {
	return mirror(root, filepath.Join(outDir, ComparisonsDir), path, baseName(path)+"_comparison.png")
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// mirror places name in the directory under outDir that corresponds to
// path's directory under root.
func mirror(root, outDir, path, name string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	return filepath.Join(outDir, filepath.Dir(rel), name), nil
}

// target is where one input's results are written.
type target struct {
	output     string
	comparison string
	err        error
}

// planTargets names every output before any worker starts, so the result
// does not depend on scheduling. Inputs in one directory that share a base
// name keep their extension in the name (page.gif becomes
// page_gif_enhanced.png). A path that is still claimed by an earlier file
// in discovery order is an error for the later one.
func planTargets(opts Options, files []string) []target {
	shared := make(map[string]int, len(files))
	for _, f := range files {
		shared[stemKey(f)]++
	}

	claimed := make(map[string]string, 2*len(files))
	claim := func(path, input string) error {
		key := strings.ToLower(filepath.Clean(path))
		if owner, ok := claimed[key]; ok {
			return fmt.Errorf("output %s is also written for %s", path, owner)
		}
		claimed[key] = input
		return nil
	}

	targets := make([]target, len(files))
	for i, f := range files {
		t := &targets[i]
		if shared[stemKey(f)] > 1 {
			stem := baseName(f) + "_" + strings.ToLower(strings.TrimPrefix(filepath.Ext(f), "."))
			t.output, t.err = mirror(opts.InputDir, opts.OutputDir, f, stem+opts.Suffix+imgutil.OutputExt(f))
			if t.err == nil && opts.Compare {
				t.comparison, t.err = mirror(opts.InputDir, filepath.Join(opts.OutputDir, ComparisonsDir), f, stem+"_comparison.png")
			}
		} else {
			t.output, t.err = OutputPath(opts.InputDir, opts.OutputDir, f, opts.Suffix)
			if t.err == nil && opts.Compare {
				t.comparison, t.err = ComparisonPath(opts.InputDir, opts.OutputDir, f)
			}
		}
		if t.err != nil {
			continue
		}
		if t.err = claim(t.output, f); t.err == nil && opts.Compare {
			t.err = claim(t.comparison, f)
		}
	}
	return targets
}

func stemKey(path string) string {
	return strings.ToLower(filepath.Join(filepath.Dir(path), baseName(path)))
}

// Run enhances every image Discover finds under opts.InputDir.
//
// Per-file failures are recorded in the matching Item and do not stop the
// run. The returned error is reserved for conditions that make the whole
// run impossible (unreadable input directory, output directory that
// cannot be created, invalid manual parameters) and for cancellation: when
// ctx is done, files not yet started are marked Skipped and Run returns the
// partial Result together with ctx.Err().
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Suffix == "" {
		opts.Suffix = config.DefaultSuffix
	}
	if opts.Mode == Manual {
		if err := opts.Params.Validate(); err != nil {
			return nil, err
		}
	}

	files, err := Discover(opts.InputDir, opts.Recursive)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	log := logger.WithFields(logrus.Fields{
		"input":  opts.InputDir,
		"output": opts.OutputDir,
		"mode":   opts.Mode.String(),
	})
	log.WithField("files", len(files)).Info("batch started")

	targets := planTargets(opts, files)
	result := &Result{Items: make([]Item, len(files))}
	for i, f := range files {
		if err := targets[i].err; err != nil {
			result.Items[i] = Item{Input: f, Err: &BatchItemError{Path: f, Err: err}}
			logger.WithError(err).WithField("path", f).Warn("batch item failed")
			continue
		}
		result.Items[i] = Item{Input: f, Skipped: true}
	}

	pool := NewWorkerPool(opts.Workers)
	pool.Start()
	defer pool.Close()

	for i := range files {
		if targets[i].err != nil {
			continue
		}
		i := i
		ok := pool.Submit(ctx, func() {
			if ctx.Err() != nil {
				return
			}
			result.Items[i] = processSafely(opts, files[i], targets[i])
		})
		if !ok {
			break
		}
	}
	pool.Wait()

	for _, it := range result.Items {
		switch {
		case it.Skipped:
			result.Skipped++
		case it.Err != nil:
			result.Failed++
		default:
			result.Succeeded++
		}
	}
	log.WithFields(logrus.Fields{
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
		"skipped":   result.Skipped,
	}).Info("batch finished")

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// process is processFile; tests replace it.
var process = processFile

// processSafely runs process and turns a panic into a failed item, so one
// file cannot stop the rest of the run.
func processSafely(opts Options, path string, t target) (item Item) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			logger.WithError(err).WithField("path", path).Error("batch item panicked")
			item = Item{Input: path, Err: &BatchItemError{Path: path, Err: err}}
		}
	}()
	return process(opts, path, t)
}

// processFile is one independent read-transform-write unit.
func processFile(opts Options, path string, t target) Item {
	start := time.Now()
	item := Item{Input: path}
	fail := func(err error) Item {
		item.Err = &BatchItemError{Path: path, Err: err}
		item.Duration = time.Since(start)
		logger.WithError(err).WithField("path", path).Warn("batch item failed")
		return item
	}

	img, err := imgutil.Load(path)
	if err != nil {
		return fail(err)
	}

	p := opts.Params
	if opts.Mode == Auto {
		if p, err = autoselect.Select(img); err != nil {
			return fail(err)
		}
	}
	item.Params = p
	item.Stages = enhance.Plan(p)

	enhanced, err := enhance.Enhance(img, p)
	if err != nil {
		return fail(err)
	}

	if err := imgutil.Save(enhanced, t.output); err != nil {
		return fail(err)
	}
	item.Output = t.output

	if opts.Compare {
		r := report.EnhancementReport{Original: img, Enhanced: enhanced, Params: p}
		if err := imgutil.Save(report.Comparison(r, filepath.Base(path)), t.comparison); err != nil {
			return fail(err)
		}
		item.Comparison = t.comparison
	}

	item.Duration = time.Since(start)
	logger.WithFields(logrus.Fields{
		"path":     path,
		"output":   t.output,
		"params":   p.String(),
		"duration": item.Duration.Round(time.Millisecond).String(),
	}).Debug("batch item enhanced")
	return item
}
