package astral

// PathOption configures a Path during construction.
//
// Example:
//
//	// Default: sanitisation runs on every *_to call.
//	p := astral.NewPath()
//
//	// Disable sanitisation, e.g. when the caller already guarantees
//	// well-formed geometry and wants to skip the per-curve checks.
//	p := astral.NewPath(astral.WithSanitizeDisabled())
type PathOption func(*pathOptions)

// pathOptions holds optional configuration for Path construction.
type pathOptions struct {
	sanitize bool
}

func defaultPathOptions() pathOptions {
	return pathOptions{sanitize: true}
}

// WithSanitizeDisabled turns off the automatic sanitisation spec.md §4.4
// otherwise applies to every curve as it is added (eliding zero-length
// lines, rewriting exactly-quadratic cubics as quadratics and
// zero-flatness curves as lines, collapsing cusp-forming
// quadratics/conics). Use this only when the caller already guarantees
// well-formed geometry.
func WithSanitizeDisabled() PathOption {
	return func(o *pathOptions) { o.sanitize = false }
}
