package route

// PathTransformKind identifies which path rewrite a PathTransform performs.
// Order within a Route.PathTransforms slice is significant: transforms are
// applied left-to-right when mapping an external (gateway) path to the
// backend path a route forwards to.
type PathTransformKind string

const (
	// PathTransformDirect passes the path through unchanged.
	PathTransformDirect PathTransformKind = "direct"

	// PathTransformPathPattern substitutes captured route values into a
	// backend path template, e.g. "/users/{**catch-all}".
	PathTransformPathPattern PathTransformKind = "pattern"

	// PathTransformPathPrefix prepends a fixed prefix to the path.
	PathTransformPathPrefix PathTransformKind = "prefix"

	// PathTransformPathRemovePrefix strips a fixed prefix from the path,
	// if present.
	PathTransformPathRemovePrefix PathTransformKind = "remove_prefix"

	// PathTransformPathSet replaces the path with a fixed value.
	PathTransformPathSet PathTransformKind = "set"

	// PathTransformUnknown represents a transform identifier this analyzer
	// does not recognize. Routes carrying one are not analyzable.
	PathTransformUnknown PathTransformKind = "unknown"
)

// PathTransform is one step of an ordered path-rewrite pipeline, parsed from
// a route's "Ada.OpenApi"-adjacent configuration (or, for an unrecognized
// transform identifier, carrying the raw value for diagnostics).
type PathTransform struct {
	Kind PathTransformKind

	// Value holds the operand for Kind: the template for PathPattern, the
	// prefix for PathPrefix/PathRemovePrefix, the literal path for PathSet.
	// Empty for Direct. Holds the unrecognized identifier for Unknown.
	Value string

	// Raw is the original, unparsed transform identifier as it appeared in
	// route metadata. Populated for Unknown transforms so warnings can name
	// the offending identifier.
	Raw string
}
