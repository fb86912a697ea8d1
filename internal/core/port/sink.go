package port

// Sink receives operator-facing output: log lines and grid blocks.
type Sink interface {
	Push(line string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(line string)

func (f SinkFunc) Push(line string) { f(line) }

// Discard drops everything pushed to it.
var Discard Sink = SinkFunc(func(string) {})
