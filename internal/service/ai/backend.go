package ai

import "context"

// Backend turns a fully built prompt into generated text.
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Streamer is implemented by backends that can emit partial output. onDelta
// receives each non-empty chunk; the returned string is the full reply.
type Streamer interface {
	Stream(ctx context.Context, prompt string, onDelta func(delta string)) (string, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, prompt string) (string, error)

func (f BackendFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type taskKey struct{}

// WithTask labels backend calls made with ctx, used for metrics and logs.
func WithTask(ctx context.Context, task string) context.Context {
	return context.WithValue(ctx, taskKey{}, task)
}

// TaskFromContext returns the task label, "chat" when none was set.
func TaskFromContext(ctx context.Context) string {
	if task, ok := ctx.Value(taskKey{}).(string); ok && task != "" {
		return task
	}
	return "chat"
}
