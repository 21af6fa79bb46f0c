package batch

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	imgutil "github.com/ironsheep/ocr-enhance/internal/imaging"
	"github.com/ironsheep/ocr-enhance/internal/params"
)

func createTestImage(t *testing.T, path string, c color.Color) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	img := imaging.New(40, 30, c)
	for x := 5; x < 35; x++ {
		img.Set(x, 15, color.Black)
	}
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("save %s: %v", path, err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func manualParams(t *testing.T) params.ParameterSet {
	t.Helper()
	p, err := params.New(params.WithContrast(1.3))
	if err != nil {
		t.Fatalf("params.New: %v", err)
	}
	return p
}

func TestRun_IsolatesCorruptFile(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	names := []string{"a.png", "b.jpg", "c.png", "d.png", "e.png"}
	for _, n := range names {
		if n == "c.png" {
			writeFile(t, filepath.Join(in, n), "not an image")
			continue
		}
		createTestImage(t, filepath.Join(in, n), color.NRGBA{200, 200, 200, 255})
	}

	res, err := Run(context.Background(), Options{InputDir: in, OutputDir: out, Mode: Auto, Workers: 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Succeeded != 4 || res.Failed != 1 || res.Skipped != 0 {
		t.Fatalf("succeeded/failed/skipped = %d/%d/%d, want 4/1/0", res.Succeeded, res.Failed, res.Skipped)
	}

	for i, it := range res.Items {
		if filepath.Base(it.Input) != names[i] {
			t.Errorf("item %d = %s, want %s (discovery order)", i, it.Input, names[i])
		}
	}

	bad := res.Items[2]
	if bad.Err == nil {
		t.Fatal("corrupt file has no error")
	}
	if bad.Err.Path != filepath.Join(in, "c.png") {
		t.Errorf("error path = %s", bad.Err.Path)
	}
	var uie *imgutil.UnsupportedImageError
	if !errors.As(bad.Err, &uie) {
		t.Errorf("error = %v, want wrapped *imaging.UnsupportedImageError", bad.Err)
	}
	if errs := res.Errors(); len(errs) != 1 || errs[0] != bad.Err {
		t.Errorf("Errors() = %v", errs)
	}

	for _, n := range []string{"a_enhanced.png", "b_enhanced.jpg", "d_enhanced.png", "e_enhanced.png"} {
		if _, err := os.Stat(filepath.Join(out, n)); err != nil {
			t.Errorf("missing output %s: %v", n, err)
		}
	}
	if res.AllFailed() {
		t.Error("AllFailed() = true")
	}
}

func TestRun_RecursiveMirrorsTree(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	createTestImage(t, filepath.Join(in, "top.png"), color.White)
	createTestImage(t, filepath.Join(in, "sub", "deep", "page.jpg"), color.White)
	writeFile(t, filepath.Join(in, "sub", "notes.txt"), "ignored")

	res, err := Run(context.Background(), Options{
		InputDir: in, OutputDir: out, Recursive: true, Mode: Manual,
		Params: manualParams(t), Suffix: "_x", Compare: true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Succeeded != 2 {
		t.Fatalf("succeeded = %d, want 2", res.Succeeded)
	}

	for _, p := range []string{
		filepath.Join(out, "top_x.png"),
		filepath.Join(out, "sub", "deep", "page_x.jpg"),
		filepath.Join(out, ComparisonsDir, "top_comparison.png"),
		filepath.Join(out, ComparisonsDir, "sub", "deep", "page_comparison.png"),
	} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing %s: %v", p, err)
		}
	}
	for _, it := range res.Items {
		if it.Params != manualParams(t) {
			t.Errorf("%s used %s, want manual params", it.Input, it.Params)
		}
	}
}

func TestRun_NonRecursiveSkipsSubdirectories(t *testing.T) {
	in := t.TempDir()
	createTestImage(t, filepath.Join(in, "top.png"), color.White)
	createTestImage(t, filepath.Join(in, "sub", "inner.png"), color.White)

	res, err := Run(context.Background(), Options{InputDir: in, OutputDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Items) != 1 || filepath.Base(res.Items[0].Input) != "top.png" {
		t.Errorf("items = %+v, want only top.png", res.Items)
	}
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	in := t.TempDir()
	for _, n := range []string{"a.png", "b.png", "c.png"} {
		createTestImage(t, filepath.Join(in, n), color.White)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Run(ctx, Options{InputDir: in, OutputDir: t.TempDir(), Workers: 1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if res == nil {
		t.Fatal("no partial result")
	}
	if res.Skipped != 3 || res.Succeeded != 0 {
		t.Errorf("skipped/succeeded = %d/%d, want 3/0", res.Skipped, res.Succeeded)
	}
	for _, it := range res.Items {
		if !it.Skipped {
			t.Errorf("%s not marked skipped", it.Input)
		}
	}
}

func TestRun_Fatal(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	writeFile(t, blocker, "x")
	in := t.TempDir()
	createTestImage(t, filepath.Join(in, "a.png"), color.White)

	tests := []struct {
		name string
		opts Options
	}{
		{"missing input", Options{InputDir: filepath.Join(in, "nope"), OutputDir: t.TempDir()}},
		{"input is a file", Options{InputDir: blocker, OutputDir: t.TempDir()}},
		{"output under a file", Options{InputDir: in, OutputDir: filepath.Join(blocker, "out")}},
		{"invalid manual params", Options{InputDir: in, OutputDir: t.TempDir(), Mode: Manual}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Run(context.Background(), tt.opts)
			if err == nil {
				t.Fatal("expected error")
			}
			if res != nil {
				t.Errorf("fatal error returned a result: %+v", res)
			}
		})
	}
}

func TestRun_EmptyDirectory(t *testing.T) {
	res, err := Run(context.Background(), Options{InputDir: t.TempDir(), OutputDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Items) != 0 || res.AllFailed() {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestRun_SharedBaseNamesGetDistinctOutputs(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	for _, n := range []string{"page.png", "page.gif", "other.png"} {
		createTestImage(t, filepath.Join(in, n), color.NRGBA{180, 180, 180, 255})
	}

	res, err := Run(context.Background(), Options{
		InputDir: in, OutputDir: out, Mode: Manual, Params: manualParams(t), Workers: 2, Compare: true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Succeeded != 3 || res.Failed != 0 {
		t.Fatalf("succeeded/failed = %d/%d, want 3/0", res.Succeeded, res.Failed)
	}

	want := map[string]string{
		"other.png": "other_enhanced.png",
		"page.gif":  "page_gif_enhanced.png",
		"page.png":  "page_png_enhanced.png",
	}
	seen := map[string]bool{}
	for _, it := range res.Items {
		if got := filepath.Base(it.Output); got != want[filepath.Base(it.Input)] {
			t.Errorf("%s -> %s, want %s", filepath.Base(it.Input), got, want[filepath.Base(it.Input)])
		}
		if seen[it.Output] || seen[it.Comparison] {
			t.Errorf("%s shares an output with another input", it.Input)
		}
		seen[it.Output], seen[it.Comparison] = true, true
	}
	for _, n := range []string{"page_gif_comparison.png", "page_png_comparison.png", "other_comparison.png"} {
		if _, err := os.Stat(filepath.Join(out, ComparisonsDir, n)); err != nil {
			t.Errorf("missing comparison %s: %v", n, err)
		}
	}
}

func TestPlanTargets_RemainingClashFailsLaterFile(t *testing.T) {
	in := filepath.FromSlash("/in")
	files := []string{
		filepath.Join(in, "page.gif"),
		filepath.Join(in, "page.png"),
		filepath.Join(in, "page_gif.png"),
	}
	targets := planTargets(Options{InputDir: in, OutputDir: filepath.FromSlash("/out"), Suffix: "_enhanced"}, files)

	for i := 0; i < 2; i++ {
		if targets[i].err != nil {
			t.Errorf("%s: unexpected error %v", files[i], targets[i].err)
		}
	}
	if targets[2].err == nil {
		t.Fatalf("%s was allowed to overwrite %s", files[2], targets[0].output)
	}
	if !strings.Contains(targets[2].err.Error(), files[0]) {
		t.Errorf("error %q does not name the earlier input", targets[2].err)
	}
}

func TestRun_PlannedClashIsItemError(t *testing.T) {
	in := t.TempDir()
	for _, n := range []string{"page.gif", "page.png", "page_gif.png"} {
		createTestImage(t, filepath.Join(in, n), color.White)
	}
	res, err := Run(context.Background(), Options{InputDir: in, OutputDir: t.TempDir(), Mode: Manual, Params: manualParams(t), Workers: 3})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Succeeded != 2 || res.Failed != 1 || res.Items[2].Err == nil {
		t.Errorf("succeeded/failed = %d/%d, last item error %v", res.Succeeded, res.Failed, res.Items[2].Err)
	}
}

func TestRun_PanicIsItemError(t *testing.T) {
	in := t.TempDir()
	for _, n := range []string{"a.png", "b.png", "c.png"} {
		createTestImage(t, filepath.Join(in, n), color.White)
	}
	orig := process
	t.Cleanup(func() { process = orig })
	process = func(opts Options, path string, tg target) Item {
		if filepath.Base(path) == "b.png" {
			panic("decoder bug")
		}
		return orig(opts, path, tg)
	}

	res, err := Run(context.Background(), Options{InputDir: in, OutputDir: t.TempDir(), Mode: Manual, Params: manualParams(t), Workers: 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Succeeded != 2 || res.Failed != 1 {
		t.Fatalf("succeeded/failed = %d/%d, want 2/1", res.Succeeded, res.Failed)
	}
	bad := res.Items[1]
	if bad.Err == nil || !strings.Contains(bad.Err.Error(), "decoder bug") {
		t.Errorf("b.png error = %v", bad.Err)
	}
}

func TestOutputPath(t *testing.T) {
	root := filepath.FromSlash("/data/in")
	out := filepath.FromSlash("/data/out")
	tests := []struct {
		path, suffix, want string
	}{
		{"/data/in/scan.jpg", "_enhanced", "/data/out/scan_enhanced.jpg"},
		{"/data/in/a/b/page.TIFF", "_enhanced", "/data/out/a/b/page_enhanced.TIFF"},
		{"/data/in/anim.gif", "_x", "/data/out/anim_x.png"},
		{"/data/in/photo.webp", "", "/data/out/photo.png"},
	}
	for _, tt := range tests {
		got, err := OutputPath(root, out, filepath.FromSlash(tt.path), tt.suffix)
		if err != nil {
			t.Fatalf("OutputPath(%s): %v", tt.path, err)
		}
		if got != filepath.FromSlash(tt.want) {
			t.Errorf("OutputPath(%s) = %s, want %s", tt.path, got, tt.want)
		}
	}
}

func TestComparisonPath(t *testing.T) {
	got, err := ComparisonPath("/in", "/out", "/in/x/scan.jpg")
	if err != nil {
		t.Fatalf("ComparisonPath: %v", err)
	}
	if want := filepath.Join("/out", ComparisonsDir, "x", "scan_comparison.png"); got != want {
		t.Errorf("ComparisonPath = %s, want %s", got, want)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("Manual"); err != nil || m != Manual {
		t.Errorf("ParseMode(Manual) = %v, %v", m, err)
	}
	if m, err := ParseMode("auto"); err != nil || m != Auto {
		t.Errorf("ParseMode(auto) = %v, %v", m, err)
	}
	if _, err := ParseMode("fast"); err == nil {
		t.Error("ParseMode(fast): expected error")
	}
}

func TestBatchItemError(t *testing.T) {
	inner := &imgutil.UnsupportedImageError{Reason: "cannot decode"}
	err := error(&BatchItemError{Path: "x.png", Err: inner})

	var uie *imgutil.UnsupportedImageError
	if !errors.As(err, &uie) {
		t.Error("BatchItemError does not unwrap")
	}
	if msg := err.Error(); msg != "batch item x.png: unsupported image: cannot decode" {
		t.Errorf("Error() = %q", msg)
	}
}

func TestDiscover_SortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"b.PNG", "a.jpg", "c.txt", "d.webp"} {
		writeFile(t, filepath.Join(dir, n), "x")
	}
	files, err := Discover(dir, false)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := []string{"a.jpg", "b.PNG", "d.webp"}
	if len(files) != len(want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	for i := range want {
		if filepath.Base(files[i]) != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, files[i], want[i])
		}
	}
}
