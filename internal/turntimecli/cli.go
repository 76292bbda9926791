package turntimecli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/phillip-england/turntime/internal/apiapp"
	"github.com/phillip-england/turntime/internal/envutil"
	"github.com/phillip-england/turntime/internal/render"
	"github.com/phillip-england/turntime/internal/report"
)

var ErrUsage = errors.New("usage")

const defaultOutDir = "leaderboards"

func Execute(args []string) error {
	return execute(args, os.Stdout)
}

func execute(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		return usageError()
	}

	switch args[0] {
	case "setup":
		return runSetup(args[1:], stdout)
	case "render":
		return runRender(args[1:], stdout)
	case "serve":
		return runServe(args[1:])
	default:
		return usageError()
	}
}

func PrintUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  turntime setup [--env-file .env] [--force] [--green 35] [--yellow-hi 37] [--addr :8080]")
	fmt.Fprintln(w, "  turntime render [--green N] [--yellow-hi N] [--out DIR] [--archive PATH] [--xlsx] [--chart] FILE...")
	fmt.Fprintln(w, "  turntime serve")
}

func usageError() error {
	return fmt.Errorf("%w: turntime <setup|render|serve> [...]", ErrUsage)
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUsage, fs.Name(), err)
	}
	return nil
}

func runSetup(args []string, stdout io.Writer) error {
	defaults := render.DefaultThresholds()
	fs := flag.NewFlagSet("setup", flag.ContinueOnError)
	envPath := fs.String("env-file", ".env", "path to .env file")
	force := fs.Bool("force", false, "overwrite existing env file")
	green := fs.Float64("green", defaults.Green, "turn times below this are good")
	yellowHi := fs.Float64("yellow-hi", defaults.YellowHi, "turn times up to this are a warning")
	addr := fs.String("addr", ":8080", "listen address for serve")
	outDir := fs.String("out", defaultOutDir, "output directory for render")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	th := render.Thresholds{Green: *green, YellowHi: *yellowHi}
	if err := th.Validate(); err != nil {
		return err
	}

	values := map[string]string{
		"TURNTIME_ADDR":          *addr,
		"TURNTIME_GREEN":         strconv.FormatFloat(th.Green, 'f', -1, 64),
		"TURNTIME_YELLOW_HI":     strconv.FormatFloat(th.YellowHi, 'f', -1, 64),
		"TURNTIME_MAX_UPLOAD_MB": "20",
		"TURNTIME_OUT_DIR":       *outDir,
	}

	if err := envutil.WriteDotEnv(*envPath, values, *force); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s\n", *envPath)
	return nil
}

func runRender(args []string, stdout io.Writer) error {
	if err := envutil.LoadDotEnv(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := apiapp.DefaultConfigFromEnv()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	green := fs.Float64("green", cfg.Thresholds.Green, "turn times below this are good")
	yellowHi := fs.Float64("yellow-hi", cfg.Thresholds.YellowHi, "turn times up to this are a warning")
	outDir := fs.String("out", envutil.OrDefault("TURNTIME_OUT_DIR", defaultOutDir), "output directory")
	archive := fs.String("archive", "", "also bundle the output into this .zip or .tar.xz")
	xlsx := fs.Bool("xlsx", false, "also export an Excel workbook per file")
	chart := fs.Bool("chart", false, "also export a bar chart per file")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: render needs at least one file", ErrUsage)
	}

	pipeline, err := report.NewPipeline(render.Thresholds{Green: *green, YellowHi: *yellowHi})
	if err != nil {
		return err
	}
	pipeline.Workbook = *xlsx
	pipeline.Chart = *chart

	files := make([]report.File, 0, fs.NArg())
	for _, path := range fs.Args() {
		files = append(files, localFile(path))
	}
	result := pipeline.RunFiles(files)

	if _, err := report.WriteDir(*outDir, result); err != nil {
		return err
	}
	for _, art := range result.Artifacts {
		fmt.Fprintf(stdout, "ok %s\n", art.Title)
	}
	for _, f := range result.Failures {
		fmt.Fprintln(stdout, f.Error())
	}

	if *archive != "" {
		if err := writeArchiveFile(*archive, result); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "wrote %s\n", *archive)
	}

	if n := len(result.Failures); n > 0 {
		return fmt.Errorf("%d of %d file(s) failed", n, len(files))
	}
	return nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if err := envutil.LoadDotEnv(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := apiapp.DefaultConfigFromEnv()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := apiapp.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Printf("turntime stopped")
	return nil
}

// localFile names the file by its base name so titles never carry the
// caller's directory layout.
func localFile(path string) report.File {
	return report.File{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

func writeArchiveFile(path string, result report.Result) error {
	if err := ensureParentDirs(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	if err := report.WriteArchive(f, path, result); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func ensureParentDirs(paths ...string) error {
	for _, p := range paths {
		dir := filepath.Dir(p)
		if dir == "." || dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
