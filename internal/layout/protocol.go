package layout

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidMessage is returned when a wire payload is missing required fields.
var ErrInvalidMessage = errors.New("invalid layout message")

// Message type tags as they appear on the wire.
const (
	TypeRun     = "run"
	TypeStop    = "stop"
	TypeTick    = "tick"
	TypeDone    = "done"
	TypeStopped = "stopped"
	TypeError   = "error"
)

// Command is sent from the orchestrator to a worker: RunCommand or StopCommand.
type Command interface {
	CommandType() string
}

// NodeInput is a node handed to a worker. Nil coordinates are seeded by the worker.
type NodeInput struct {
	ID string   `json:"id"`
	X  *float64 `json:"x,omitempty"`
	Y  *float64 `json:"y,omitempty"`
}

// EdgeInput is an edge handed to a worker. A nil weight uses the default influence.
type EdgeInput struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Weight *float64 `json:"weight,omitempty"`
}

// RunCommand starts a layout run on an idle worker.
type RunCommand struct {
	Iterations int         `json:"iterations"`
	ChunkSize  int         `json:"chunkSize"`
	Settings   Settings    `json:"settings"`
	Directed   bool        `json:"directed,omitempty"`
	Nodes      []NodeInput `json:"nodes"`
	Edges      []EdgeInput `json:"edges"`
}

// StopCommand asks a running worker to stop after its current chunk.
type StopCommand struct{}

func (RunCommand) CommandType() string  { return TypeRun }
func (StopCommand) CommandType() string { return TypeStop }

// Message is sent from a worker to the orchestrator: TickMessage, DoneMessage,
// StoppedMessage or ErrorMessage. Done, Stopped and Error are terminal.
type Message interface {
	MessageType() string
}

// Position is one node's coordinates in a tick or done payload.
type Position struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// TickMessage reports intermediate positions. Progress is a percentage in [0, 100].
type TickMessage struct {
	Progress  float64    `json:"progress"`
	Positions []Position `json:"positions"`
}

// DoneMessage carries the final positions.
type DoneMessage struct {
	Positions []Position `json:"positions"`
}

// StoppedMessage acknowledges a stop. It carries no positions.
type StoppedMessage struct{}

// ErrorMessage reports a failed iteration chunk.
type ErrorMessage struct {
	Message string `json:"message"`
}

func (TickMessage) MessageType() string    { return TypeTick }
func (DoneMessage) MessageType() string    { return TypeDone }
func (StoppedMessage) MessageType() string { return TypeStopped }
func (ErrorMessage) MessageType() string   { return TypeError }

// Terminal reports whether m ends a run.
func Terminal(m Message) bool {
	switch m.(type) {
	case DoneMessage, StoppedMessage, ErrorMessage:
		return true
	}
	return false
}

// ─── Wire form ───

type envelope struct {
	Type string `json:"type"`

	// run
	Iterations *int         `json:"iterations,omitempty"`
	ChunkSize  *int         `json:"chunkSize,omitempty"`
	Settings   *Settings    `json:"settings,omitempty"`
	Directed   bool         `json:"directed,omitempty"`
	Nodes      *[]NodeInput `json:"nodes,omitempty"`
	Edges      *[]EdgeInput `json:"edges,omitempty"`

	// tick, done, error
	Progress  *float64    `json:"progress,omitempty"`
	Positions *[]Position `json:"positions,omitempty"`
	Message   *string     `json:"message,omitempty"`
}

// EncodeCommand renders a command in its wire form.
func EncodeCommand(c Command) ([]byte, error) {
	switch c := c.(type) {
	case RunCommand:
		nodes, edges := c.Nodes, c.Edges
		if nodes == nil {
			nodes = []NodeInput{}
		}
		if edges == nil {
			edges = []EdgeInput{}
		}
		return json.Marshal(envelope{
			Type:       TypeRun,
			Iterations: &c.Iterations,
			ChunkSize:  &c.ChunkSize,
			Settings:   &c.Settings,
			Directed:   c.Directed,
			Nodes:      &nodes,
			Edges:      &edges,
		})
	case StopCommand:
		return json.Marshal(envelope{Type: TypeStop})
	}
	return nil, fmt.Errorf("%w: unknown command %T", ErrInvalidMessage, c)
}

// DecodeCommand parses and validates a command.
func DecodeCommand(data []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	switch env.Type {
	case TypeRun:
		if env.Iterations == nil || env.ChunkSize == nil || env.Nodes == nil || env.Edges == nil {
			return nil, fmt.Errorf("%w: run requires iterations, chunkSize, nodes and edges", ErrInvalidMessage)
		}
		if *env.Iterations <= 0 || *env.ChunkSize <= 0 {
			return nil, fmt.Errorf("%w: iterations and chunkSize must be positive", ErrInvalidMessage)
		}
		settings := DefaultSettings()
		if env.Settings != nil {
			settings = *env.Settings
		}
		return RunCommand{
			Iterations: *env.Iterations,
			ChunkSize:  *env.ChunkSize,
			Settings:   settings,
			Directed:   env.Directed,
			Nodes:      *env.Nodes,
			Edges:      *env.Edges,
		}, nil
	case TypeStop:
		return StopCommand{}, nil
	}
	return nil, fmt.Errorf("%w: unknown command type %q", ErrInvalidMessage, env.Type)
}

// EncodeMessage renders a worker message in its wire form.
func EncodeMessage(m Message) ([]byte, error) {
	switch m := m.(type) {
	case TickMessage:
		pos := nonNil(m.Positions)
		return json.Marshal(envelope{Type: TypeTick, Progress: &m.Progress, Positions: &pos})
	case DoneMessage:
		pos := nonNil(m.Positions)
		return json.Marshal(envelope{Type: TypeDone, Positions: &pos})
	case StoppedMessage:
		return json.Marshal(envelope{Type: TypeStopped})
	case ErrorMessage:
		return json.Marshal(envelope{Type: TypeError, Message: &m.Message})
	}
	return nil, fmt.Errorf("%w: unknown message %T", ErrInvalidMessage, m)
}

// DecodeMessage parses and validates a worker message.
func DecodeMessage(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	switch env.Type {
	case TypeTick:
		if env.Progress == nil || env.Positions == nil {
			return nil, fmt.Errorf("%w: tick requires progress and positions", ErrInvalidMessage)
		}
		if *env.Progress < 0 || *env.Progress > 100 {
			return nil, fmt.Errorf("%w: progress %v out of range", ErrInvalidMessage, *env.Progress)
		}
		return TickMessage{Progress: *env.Progress, Positions: *env.Positions}, nil
	case TypeDone:
		if env.Positions == nil {
			return nil, fmt.Errorf("%w: done requires positions", ErrInvalidMessage)
		}
		return DoneMessage{Positions: *env.Positions}, nil
	case TypeStopped:
		return StoppedMessage{}, nil
	case TypeError:
		if env.Message == nil {
			return nil, fmt.Errorf("%w: error requires message", ErrInvalidMessage)
		}
		return ErrorMessage{Message: *env.Message}, nil
	}
	return nil, fmt.Errorf("%w: unknown message type %q", ErrInvalidMessage, env.Type)
}

func nonNil(p []Position) []Position {
	if p == nil {
		return []Position{}
	}
	return p
}
