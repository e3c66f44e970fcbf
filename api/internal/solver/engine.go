package solver

import "context"

// Engine hands out model handles of an external vision-language service.
type Engine interface {
	Name() string
	// Acquire returns a ready handle for the named model or an error if the
	// model cannot be initialised.
	Acquire(ctx context.Context, model string) (Model, error)
}

// Model is a handle to one named model. Callers must Close it.
type Model interface {
	Name() string
	// Generate sends the prompt and, when img is non-nil, the image. It
	// returns the text of the response.
	Generate(ctx context.Context, prompt string, img *Image) (string, error)
	Close() error
}
