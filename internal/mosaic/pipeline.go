package mosaic

import (
	"context"
	"fmt"
	"image"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// State is the phase a pipeline run is in.
type State int32

const (
	StateIdle State = iota
	StatePartitioning
	StateReducing
	StateResolving
	StateCompositing
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StatePartitioning:
		return "Partitioning"
	case StateReducing:
		return "Reducing"
	case StateResolving:
		return "Resolving"
	case StateCompositing:
		return "Compositing"
	case StateDone:
		return "Done"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// RowReport is delivered to a row observer once a row has been drawn or has
// failed.
type RowReport struct {
	RunID string
	Row   int
	Tiles int
	Err   error
}

// RowErrors is the set of rows that could not be composited in one run.
type RowErrors []*RowError

func (e RowErrors) Error() string {
	msgs := make([]string, len(e))
	for i, re := range e {
		msgs[i] = re.Error()
	}
	return fmt.Sprintf("%d row(s) failed: %s", len(e), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual row failures to errors.Is and errors.As.
func (e RowErrors) Unwrap() []error {
	errs := make([]error, len(e))
	for i, re := range e {
		errs[i] = re
	}
	return errs
}

// Result summarizes a finished run.
type Result struct {
	RunID     string    `json:"run_id"`
	Rows      int       `json:"rows"`
	Tiles     int       `json:"tiles"`
	Completed []int     `json:"completed_rows"`
	Failed    RowErrors `json:"-"`
	// Requests is the number of substitute requests issued, one per
	// distinct color key.
	Requests int `json:"requests"`
}

// FailedRows returns the indexes of the rows that were not composited.
func (r *Result) FailedRows() []int {
	rows := make([]int, len(r.Failed))
	for i, re := range r.Failed {
		rows[i] = re.Row
	}
	return rows
}

// Err returns the row failures, or nil when every row was composited.
func (r *Result) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	return r.Failed
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for run diagnostics.
func WithLogger(logger *log.Entry) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithRowObserver registers fn to be called once per row as rows finish.
// Rows finish in any order and fn may be called from several goroutines at
// once.
func WithRowObserver(fn func(RowReport)) Option {
	return func(p *Pipeline) {
		p.observer = fn
	}
}

// WithRunID fixes the run identifier instead of generating a random one.
func WithRunID(id string) Option {
	return func(p *Pipeline) {
		p.runID = id
	}
}

// Pipeline turns a source image into a photo mosaic on a composite target.
//
// Every tile's average color is looked up through a TileCache scoped to one
// ProcessImage call, so each distinct color is requested from the resolver
// once. Rows are joined and drawn independently: a row is drawn only after
// all of its substitutes have arrived, a failed substitute fails only the
// rows that use it, and rows may finish in any order.
type Pipeline struct {
	source     Source
	target     CompositeTarget
	resolver   SubstituteResolver
	tileWidth  int
	tileHeight int

	logger   *log.Entry
	observer func(RowReport)
	runID    string

	state   atomic.Int32
	running atomic.Bool
}

// New validates the configuration and returns an idle pipeline. The source
// and target are borrowed; the target must have the source's dimensions.
func New(src Source, tileWidth, tileHeight int, target CompositeTarget, resolver SubstituteResolver, opts ...Option) (*Pipeline, error) {
	switch {
	case src == nil:
		return nil, errors.Wrap(ErrInvalidInput, "missing source image")
	case target == nil:
		return nil, errors.Wrap(ErrInvalidInput, "missing composite target")
	case resolver == nil:
		return nil, errors.Wrap(ErrInvalidInput, "missing substitute resolver")
	case tileWidth <= 0 || tileHeight <= 0:
		return nil, errors.Wrapf(ErrInvalidInput, "tile size %dx%d", tileWidth, tileHeight)
	case src.Width() <= 0 || src.Height() <= 0:
		return nil, errors.Wrapf(ErrInvalidInput, "source size %dx%d", src.Width(), src.Height())
	}

	want := image.Rect(0, 0, src.Width(), src.Height())
	if got := target.Bounds(); got != want {
		return nil, errors.Wrapf(ErrInvalidInput, "target %v does not match source %v", got, want)
	}

	p := &Pipeline{
		source:     src,
		target:     target,
		resolver:   resolver,
		tileWidth:  tileWidth,
		tileHeight: tileHeight,
		logger:     log.NewEntry(log.StandardLogger()),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// State reports the phase of the current or most recent run.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

func (p *Pipeline) setState(s State) {
	p.state.Store(int32(s))
	p.logger.WithField("state", s).Debug("pipeline state")
}

type rowJob struct {
	tiles []TileSpec
	keys  []ColorKey
}

// ProcessImage runs the pipeline once.
//
// Configuration problems were rejected by New; the only synchronous failure
// here is ErrBusy. Otherwise a Result is always returned, and the error is
// non-nil exactly when some rows failed. Rows that were drawn stay drawn.
func (p *Pipeline) ProcessImage(ctx context.Context) (*Result, error) {
	if !p.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer p.running.Store(false)

	runID := p.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := p.logger.WithField("run", runID)

	p.setState(StatePartitioning)
	rows, err := Partition(p.source.Width(), p.source.Height(), p.tileWidth, p.tileHeight)
	if err != nil {
		p.setState(StateFailed)
		return nil, err
	}
	res := &Result{RunID: runID, Rows: len(rows)}
	for _, row := range rows {
		res.Tiles += len(row)
	}
	logger.WithFields(log.Fields{
		"width":  p.source.Width(),
		"height": p.source.Height(),
		"rows":   res.Rows,
		"tiles":  res.Tiles,
	}).Info("mosaic run started")

	p.setState(StateReducing)
	jobs := make([]rowJob, len(rows))
	for r, row := range rows {
		keys := make([]ColorKey, len(row))
		for c, t := range row {
			key, err := AverageImageColor(p.source, t.Rect())
			if err != nil {
				p.setState(StateFailed)
				return nil, errors.Wrapf(err, "reduce tile (%d,%d)", t.Row, t.Col)
			}
			keys[c] = key
		}
		jobs[r] = rowJob{tiles: row, keys: keys}
	}

	if err := p.target.Clear(p.target.Bounds()); err != nil {
		p.setState(StateFailed)
		return nil, errors.Wrap(err, "clear target")
	}

	p.setState(StateResolving)
	cache := NewTileCache(p.resolver, logger)
	outcomes := make(chan RowReport, len(jobs))
	var wg sync.WaitGroup
	for r, job := range jobs {
		futures := make([]*Future, len(job.tiles))
		for c, key := range job.keys {
			futures[c] = cache.Resolve(ctx, key)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			report := RowReport{RunID: runID, Row: r, Tiles: len(job.tiles)}
			if err := p.compositeRow(logger, r, job.tiles, futures); err != nil {
				report.Err = err
			}
			if p.observer != nil {
				p.observer(report)
			}
			outcomes <- report
		}()
	}

	p.setState(StateCompositing)
	wg.Wait()
	close(outcomes)

	for report := range outcomes {
		if report.Err != nil {
			re, ok := report.Err.(*RowError)
			if !ok {
				re = &RowError{Row: report.Row, Err: report.Err}
			}
			res.Failed = append(res.Failed, re)
			logger.WithField("row", report.Row).WithError(report.Err).Warn("row not composited")
			continue
		}
		res.Completed = append(res.Completed, report.Row)
	}
	sort.Ints(res.Completed)
	sort.Slice(res.Failed, func(i, j int) bool { return res.Failed[i].Row < res.Failed[j].Row })
	res.Requests = cache.Requests()

	if len(res.Failed) > 0 {
		p.setState(StateFailed)
	} else {
		p.setState(StateDone)
	}
	logger.WithFields(log.Fields{
		"completed": len(res.Completed),
		"failed":    len(res.Failed),
		"requests":  res.Requests,
	}).Info("mosaic run finished")

	return res, res.Err()
}

// compositeRow waits for every substitute in the row and then draws the
// whole row. A row that fails leaves the target as it was.
func (p *Pipeline) compositeRow(logger *log.Entry, row int, tiles []TileSpec, futures []*Future) *RowError {
	images := make([]image.Image, len(futures))
	var g errgroup.Group
	for i, f := range futures {
		g.Go(func() error {
			img, err := f.Wait()
			images[i] = img
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return &RowError{Row: row, Err: err}
	}

	bounds := p.target.Bounds()
	for _, t := range tiles {
		if !t.Rect().In(bounds) {
			return &RowError{Row: row, Err: errors.Errorf("tile (%d,%d) %v outside target %v", t.Row, t.Col, t.Rect(), bounds)}
		}
	}

	if rt, ok := p.target.(RowTarget); ok {
		rects := make([]image.Rectangle, len(tiles))
		for i, t := range tiles {
			rects[i] = t.Rect()
		}
		if err := rt.DrawRow(images, rects); err != nil {
			return &RowError{Row: row, Err: errors.Wrap(err, "draw row")}
		}
	} else {
		for i, t := range tiles {
			if err := p.target.Draw(images[i], t.Rect()); err != nil {
				p.undrawRow(logger, row, tiles[:i])
				return &RowError{Row: row, Err: errors.Wrapf(err, "draw tile (%d,%d)", t.Row, t.Col)}
			}
		}
	}

	logger.WithFields(log.Fields{"row": row, "tiles": len(tiles)}).Debug("row composited")
	return nil
}

// undrawRow clears tiles that were drawn before a later tile in the same row
// was rejected. The target was cleared when the run started and rows do not
// overlap, so this restores the row's previous contents.
func (p *Pipeline) undrawRow(logger *log.Entry, row int, drawn []TileSpec) {
	for _, t := range drawn {
		if err := p.target.Clear(t.Rect()); err != nil {
			logger.WithFields(log.Fields{"row": row, "col": t.Col}).WithError(err).Error("failed to clear partially drawn row")
		}
	}
}
