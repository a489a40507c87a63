package layout

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

// ErrTerminated is returned when posting to a terminated worker.
var ErrTerminated = errors.New("worker terminated")

// Worker runs one layout computation off the caller's goroutine. It owns a
// private copy of the positions and talks to its owner only through messages.
// A worker serves a single run; once it has emitted a terminal message, or
// has been terminated, it must be discarded.
type Worker interface {
	// Post delivers a command. It never blocks on a busy worker.
	Post(Command) error
	// Messages yields worker output in order and is closed after the terminal message.
	Messages() <-chan Message
	// Terminate kills the worker without waiting for acknowledgement.
	Terminate()
}

// Spawner creates a fresh worker.
type Spawner func() Worker

type fa2Worker struct {
	inbox  chan Command
	out    chan Message
	quit   chan struct{}
	once   sync.Once
	logger *zap.Logger
}

// NewWorker starts a ForceAtlas2 worker goroutine waiting for a RunCommand.
func NewWorker(logger *zap.Logger) Worker {
	w := newFA2Worker(logger)
	w.start()
	return w
}

// NewSpawner returns a Spawner for ForceAtlas2 workers.
func NewSpawner(logger *zap.Logger) Spawner {
	return func() Worker { return NewWorker(logger) }
}

func newFA2Worker(logger *zap.Logger) *fa2Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &fa2Worker{
		inbox:  make(chan Command, 8),
		out:    make(chan Message, 16),
		quit:   make(chan struct{}),
		logger: logger,
	}
}

func (w *fa2Worker) start() {
	go w.loop()
}

func (w *fa2Worker) Post(c Command) error {
	select {
	case <-w.quit:
		return ErrTerminated
	default:
	}
	select {
	case w.inbox <- c:
		return nil
	case <-w.quit:
		return ErrTerminated
	default:
		return fmt.Errorf("worker inbox full")
	}
}

func (w *fa2Worker) Messages() <-chan Message { return w.out }

func (w *fa2Worker) Terminate() {
	w.once.Do(func() { close(w.quit) })
}

func (w *fa2Worker) terminated() bool {
	select {
	case <-w.quit:
		return true
	default:
		return false
	}
}

// emit delivers a message unless the worker has been terminated.
func (w *fa2Worker) emit(m Message) bool {
	select {
	case w.out <- m:
		return true
	case <-w.quit:
		return false
	}
}

func (w *fa2Worker) loop() {
	defer close(w.out)

	// Idle: wait for a run.
	var run RunCommand
	select {
	case <-w.quit:
		return
	case c := <-w.inbox:
		switch c := c.(type) {
		case RunCommand:
			run = c
		case StopCommand:
			w.emit(StoppedMessage{})
			return
		default:
			w.emit(ErrorMessage{Message: fmt.Sprintf("unexpected command %T", c)})
			return
		}
	}
	w.execute(run)
}

// stopRequested drains pending commands and reports whether a stop arrived.
func (w *fa2Worker) stopRequested() bool {
	for {
		select {
		case c := <-w.inbox:
			if _, ok := c.(StopCommand); ok {
				return true
			}
			w.logger.Debug("ignoring command while running", zap.String("type", c.CommandType()))
		default:
			return false
		}
	}
}

func (w *fa2Worker) execute(run RunCommand) {
	if run.Iterations <= 0 || run.ChunkSize <= 0 {
		w.emit(ErrorMessage{Message: "iterations and chunk size must be positive"})
		return
	}
	sim, err := newSimulation(run)
	if err != nil {
		w.emit(ErrorMessage{Message: err.Error()})
		return
	}
	w.logger.Debug("layout run started",
		zap.Int("nodes", len(sim.bodies)),
		zap.Int("edges", len(sim.links)),
		zap.Int("iterations", run.Iterations),
		zap.Bool("barnesHut", run.Settings.BarnesHutOptimize))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-w.quit:
			cancel()
		case <-ctx.Done():
		}
	}()

	completed := 0
	for completed < run.Iterations {
		n := min(run.ChunkSize, run.Iterations-completed)
		if err := w.chunk(ctx, sim, n); err != nil {
			if w.terminated() {
				return
			}
			w.emit(ErrorMessage{Message: err.Error()})
			return
		}
		completed += n

		if w.terminated() {
			return
		}
		if w.stopRequested() {
			w.emit(StoppedMessage{})
			return
		}
		if completed >= run.Iterations {
			w.emit(DoneMessage{Positions: sim.positions()})
			return
		}
		progress := 100 * float64(completed) / float64(run.Iterations)
		if !w.emit(TickMessage{Progress: progress, Positions: sim.positions()}) {
			return
		}
		// Let the owner and other goroutines run between chunks.
		runtime.Gosched()
	}
}

// chunk runs n iterations, turning a panic into an error.
func (w *fa2Worker) chunk(ctx context.Context, sim *simulation, n int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("layout iteration panicked: %v", r)
		}
	}()
	return sim.iterate(ctx, n)
}
