package estimator

import "context"

// Request sources recorded alongside each check.
const (
	SourceAPI      = "api"
	SourceTelegram = "telegram"
	SourceCLI      = "cli"
)

type contextKey int

const contextKeySource contextKey = iota

// WithSource tags ctx with the surface that requested the evaluation.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, contextKeySource, source)
}

// SourceFrom returns the source tagged on ctx, or SourceAPI.
func SourceFrom(ctx context.Context) string {
	if s, ok := ctx.Value(contextKeySource).(string); ok && s != "" {
		return s
	}
	return SourceAPI
}
