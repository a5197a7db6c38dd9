package host

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/beevik/sim6502/cpu"
	"github.com/beevik/sim6502/log"
)

// ErrStepLimit is returned when a program executes more instructions than
// its step budget allows.
var ErrStepLimit = errors.New("step limit exceeded")

// Number of steps between two checks of the context.
const ctxCheckInterval = 1024

// A Result describes the CPU after a run.
type Result struct {
	Name    string        // image name, set by RunImages
	Reg     cpu.Registers // final register state
	Steps   int           // number of instructions fetched
	Cycles  uint64        // approximate number of CPU cycles
	State   cpu.State     // halted if the program reached a BRK
	Stopped bool          // run stopped by the Break callback
	Err     error         // error that ended the run, set by RunImages
}

// Halted reports whether the program ran to a BRK.
func (r *Result) Halted() bool {
	return r.State == cpu.Halted
}

// A Runner drives a CPU execution loop under an external step budget.
type Runner struct {
	CPU      *cpu.CPU
	MaxSteps int // 0 means unlimited

	// Break, if set, is called after each executed instruction. Returning
	// true stops the run.
	Break func(c *cpu.CPU) bool
}

// NewRunner creates a runner with its own CPU and 64K memory.
func NewRunner(maxSteps int) *Runner {
	return &Runner{
		CPU:      cpu.New(),
		MaxSteps: maxSteps,
	}
}

// Run steps the CPU until it halts, fails, exhausts its step budget, is
// stopped by the Break callback, or the context is canceled.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	c := r.CPU
	c.State = cpu.Running

	steps := 0
	for c.State == cpu.Running {
		if r.MaxSteps > 0 && steps >= r.MaxSteps {
			return r.result(steps, false), ErrStepLimit
		}
		if steps%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return r.result(steps, false), err
			}
		}

		err := c.Step()
		steps++
		if err != nil {
			return r.result(steps, false), err
		}

		if c.State == cpu.Running && r.Break != nil && r.Break(c) {
			return r.result(steps, true), nil
		}
	}
	return r.result(steps, false), nil
}

func (r *Runner) result(steps int, stopped bool) Result {
	return Result{
		Reg:     r.CPU.Reg,
		Steps:   steps,
		Cycles:  r.CPU.Cycles,
		State:   r.CPU.State,
		Stopped: stopped,
	}
}

// RunImage loads a program image at the standard load address, resets a
// fresh CPU and runs it under the step budget.
func RunImage(image []byte, maxSteps int) (Result, error) {
	r := NewRunner(maxSteps)
	r.CPU.Load(image)
	r.CPU.Reset()
	return r.Run(context.Background())
}

// RunImages reads and runs each image file in its own execution context.
// The images run concurrently. Program failures are reported in each
// Result; the returned error is set only when a file cannot be read or the
// context is canceled.
func RunImages(ctx context.Context, paths []string, maxSteps int) ([]Result, error) {
	results := make([]Result, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		g.Go(func() error {
			image, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			name := filepath.Base(path)
			entry := log.ModRun.WithField("image", name)
			entry.Debugf("running %d bytes", len(image))

			r := NewRunner(maxSteps)
			r.CPU.Load(image)
			r.CPU.Reset()
			res, err := r.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return err
			}
			if err != nil {
				entry.Warnf("stopped after %d steps: %v", res.Steps, err)
				res.Err = fmt.Errorf("%s: %w", name, err)
			}
			res.Name = name
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
