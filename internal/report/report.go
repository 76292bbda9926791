package report

import (
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/phillip-england/turntime/internal/leaderboard"
	"github.com/phillip-england/turntime/internal/render"
	"github.com/phillip-england/turntime/internal/table"
)

const titlePrefix = "Eat-In Turn Time Leaderboard – "

// Input is one already-decoded export.
type Input struct {
	Name  string
	Table table.Table
}

// File is one export that still has to be decoded.
type File struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// Artifact is everything produced for one file.
type Artifact struct {
	Name     string
	Base     string
	Title    string
	Board    leaderboard.Board
	Grid     render.Grid
	PNG      []byte
	Workbook []byte
	Chart    []byte
}

// FileError ties a failure to the file it came from.
type FileError struct {
	Name string
	Err  error
}

func (e *FileError) Error() string {
	return e.Name + ": " + e.Err.Error()
}

func (e *FileError) Unwrap() error {
	return e.Err
}

type Result struct {
	Artifacts []Artifact
	Failures  []*FileError
}

// addArtifact appends art, suffixing its Base when an earlier file in the
// batch already produced the same one so output names never collide.
func (r *Result) addArtifact(art Artifact) {
	base := art.Base
	for n := 2; r.hasBase(base); n++ {
		base = fmt.Sprintf("%s_%d", art.Base, n)
	}
	art.Base = base
	r.Artifacts = append(r.Artifacts, art)
}

func (r *Result) hasBase(base string) bool {
	for _, art := range r.Artifacts {
		if strings.EqualFold(art.Base, base) {
			return true
		}
	}
	return false
}

type Pipeline struct {
	Thresholds render.Thresholds
	Renderer   *render.Renderer
	Workbook   bool
	Chart      bool
	Logger     *log.Logger
	Metrics    *Metrics
}

func NewPipeline(th render.Thresholds) (*Pipeline, error) {
	if err := th.Validate(); err != nil {
		return nil, err
	}
	renderer, err := render.NewRenderer()
	if err != nil {
		return nil, err
	}
	return &Pipeline{Thresholds: th, Renderer: renderer, Logger: log.Default()}, nil
}

// Base strips directories and the extension from an upload name.
func Base(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func Title(name string) string {
	return titlePrefix + Base(name)
}

// Process runs one export through resolve, aggregate and render. Nothing is
// returned for the file unless every step succeeds.
func (p *Pipeline) Process(in Input) (art Artifact, err error) {
	start := time.Now()
	defer func() {
		p.Metrics.observe(err, time.Since(start).Seconds())
	}()

	mapping, err := leaderboard.Resolve(in.Table.Columns)
	if err != nil {
		return Artifact{}, &FileError{Name: in.Name, Err: err}
	}
	board, err := leaderboard.Aggregate(in.Table, mapping)
	if err != nil {
		return Artifact{}, &FileError{Name: in.Name, Err: err}
	}

	title := Title(in.Name)
	grid := render.Layout(board, title, p.Thresholds)
	png, err := p.Renderer.Render(grid)
	if err != nil {
		return Artifact{}, &FileError{Name: in.Name, Err: err}
	}

	art = Artifact{
		Name:  in.Name,
		Base:  Base(in.Name),
		Title: title,
		Board: board,
		Grid:  grid,
		PNG:   png,
	}
	if p.Workbook {
		if art.Workbook, err = render.Workbook(grid, p.Renderer.Palette); err != nil {
			return Artifact{}, &FileError{Name: in.Name, Err: err}
		}
	}
	if p.Chart {
		if art.Chart, err = render.Chart(board, title, p.Thresholds, p.Renderer.Palette); err != nil {
			return Artifact{}, &FileError{Name: in.Name, Err: err}
		}
	}
	return art, nil
}

// Run processes every input on its own; a failing file never stops the
// files after it.
func (p *Pipeline) Run(inputs []Input) Result {
	var result Result
	for _, in := range inputs {
		art, err := p.safeProcess(in)
		if err != nil {
			result.Failures = append(result.Failures, p.fail(in.Name, err))
			continue
		}
		p.logf("rendered %s (%d servers)", in.Name, len(art.Board.Rows)-1)
		result.addArtifact(art)
	}
	return result
}

// RunFiles decodes and processes each file. Decode failures are reported
// like any other per-file failure.
func (p *Pipeline) RunFiles(files []File) Result {
	var result Result
	for _, file := range files {
		tbl, err := decode(file)
		if err != nil {
			result.Failures = append(result.Failures, p.fail(file.Name, err))
			continue
		}
		sub := p.Run([]Input{{Name: file.Name, Table: tbl}})
		for _, art := range sub.Artifacts {
			result.addArtifact(art)
		}
		result.Failures = append(result.Failures, sub.Failures...)
	}
	return result
}

func decode(file File) (table.Table, error) {
	rc, err := file.Open()
	if err != nil {
		return table.Table{}, err
	}
	defer rc.Close()
	return table.Decode(file.Name, rc)
}

func (p *Pipeline) safeProcess(in Input) (art Artifact, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected failure: %v", r)
		}
	}()
	return p.Process(in)
}

func (p *Pipeline) fail(name string, err error) *FileError {
	var fileErr *FileError
	if !errors.As(err, &fileErr) {
		fileErr = &FileError{Name: name, Err: err}
	}
	p.logf("%v", fileErr)
	return fileErr
}

func (p *Pipeline) logf(format string, args ...any) {
	if p.Logger != nil {
		p.Logger.Printf(format, args...)
	}
}
