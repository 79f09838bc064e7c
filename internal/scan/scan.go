// Package scan walks a directory tree and reports its progress through a
// progress.Progress: the root task counts top-level directories and every
// top-level directory gets its own sub-task counting bytes.
package scan

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/tracklog/internal/progress"
	"github.com/JakeFAU/tracklog/internal/unit"
)

// Summary totals what a scan visited.
type Summary struct {
	Dirs  int
	Files int
	Bytes int64
}

func (s *Summary) add(o Summary) {
	s.Dirs += o.Dirs
	s.Files += o.Files
	s.Bytes += o.Bytes
}

// String renders the summary for status messages.
func (s Summary) String() string {
	return fmt.Sprintf("%d files, %s in %d dirs", s.Files, humanize.Bytes(uint64(s.Bytes)), s.Dirs)
}

// Scanner walks directories on an afero filesystem.
type Scanner struct {
	fs          afero.Fs
	concurrency int
	logger      *zap.Logger
}

// New creates a Scanner. concurrency bounds how many top-level directories
// are walked at once.
func New(fs afero.Fs, concurrency int, logger *zap.Logger) *Scanner {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{fs: fs, concurrency: concurrency, logger: logger}
}

// Run scans root. p is only touched from the calling goroutine; each
// sub-task is handed to exactly one worker goroutine.
func (s *Scanner) Run(ctx context.Context, root string, p progress.Progress) (Summary, error) {
	infos, err := afero.ReadDir(s.fs, root)
	if err != nil {
		p.Message(progress.MessageFailure, err.Error())
		return Summary{}, fmt.Errorf("read %s: %w", root, err)
	}

	var total Summary
	total.Dirs = 1
	var dirs []os.FileInfo
	for _, info := range infos {
		if info.IsDir() {
			dirs = append(dirs, info)
			continue
		}
		total.Files++
		total.Bytes += info.Size()
	}

	p.Init(progress.Some(len(dirs)), unit.Range("dirs").WithPercentage())
	p.Set(0)

	children := make([]progress.Progress, len(dirs))
	for i, info := range dirs {
		children[i] = p.AddChild(info.Name())
	}

	results := make(chan Summary)
	var walkErr error
	go func() {
		defer close(results)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.concurrency)
		for i, info := range dirs {
			child := children[i]
			dir := filepath.Join(root, info.Name())
			g.Go(func() error {
				sum, err := s.walk(gctx, dir, child)
				if err != nil {
					child.Message(progress.MessageFailure, err.Error())
					return err
				}
				select {
				case results <- sum:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		walkErr = g.Wait()
	}()

	for sum := range results {
		total.add(sum)
		p.IncBy(1)
	}
	if walkErr != nil {
		p.Message(progress.MessageFailure, walkErr.Error())
		return total, fmt.Errorf("scan %s: %w", root, walkErr)
	}

	s.logger.Debug("scan finished",
		zap.String("root", root),
		zap.Int("files", total.Files),
		zap.Int64("bytes", total.Bytes))
	p.Message(progress.MessageSuccess, total.String())
	return total, nil
}

func (s *Scanner) walk(ctx context.Context, dir string, p progress.Progress) (Summary, error) {
	p.Init(nil, unit.Bytes())
	var sum Summary
	err := afero.Walk(s.fs, dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if info.IsDir() {
			sum.Dirs++
			return nil
		}
		sum.Files++
		sum.Bytes += info.Size()
		p.IncBy(sizeStep(info.Size()))
		return nil
	})
	if err != nil {
		return sum, fmt.Errorf("walk %s: %w", dir, err)
	}
	p.Message(progress.MessageSuccess, fmt.Sprintf("%d files, %s", sum.Files, humanize.Bytes(uint64(sum.Bytes))))
	return sum, nil
}

// sizeStep converts a file size to a step increment. Steps are ints, so on
// 32-bit platforms sizes beyond math.MaxInt are clamped rather than wrapped;
// Summary.Bytes keeps the exact int64 total.
func sizeStep(size int64) int {
	if size > int64(math.MaxInt) {
		return math.MaxInt
	}
	return int(size)
}
