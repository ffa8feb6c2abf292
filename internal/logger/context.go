package logger

import "context"

type requestContextKey struct{}

// RequestContext carries the correlation fields of one API request through
// its context, so logs emitted deep in the service layer share the same
// request_id, user and client_ip as the HTTP access log.
type RequestContext struct {
	RequestID string
	User      string
	ClientIP  string
}

// WithContext returns a copy of ctx carrying rc.
func WithContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// FromContext returns the RequestContext carried by ctx, or nil.
func FromContext(ctx context.Context) *RequestContext {
	rc, _ := ctx.Value(requestContextKey{}).(*RequestContext)
	return rc
}

// ContextWithUser stamps the authenticated user onto the request fields of
// ctx. The existing RequestContext is copied, not mutated, because it may be
// shared with middleware that already captured it.
func ContextWithUser(ctx context.Context, user string) context.Context {
	rc := FromContext(ctx)
	if rc == nil {
		return WithContext(ctx, &RequestContext{User: user})
	}
	cp := *rc
	cp.User = user
	return WithContext(ctx, &cp)
}

// withRequestFields prepends the fields of the RequestContext carried by
// ctx, if any, to args.
func withRequestFields(ctx context.Context, args []any) []any {
	rc := FromContext(ctx)
	if rc == nil {
		return args
	}

	fields := make([]any, 0, 6+len(args))
	if rc.RequestID != "" {
		fields = append(fields, KeyRequestID, rc.RequestID)
	}
	if rc.User != "" {
		fields = append(fields, KeyUser, rc.User)
	}
	if rc.ClientIP != "" {
		fields = append(fields, KeyClientIP, rc.ClientIP)
	}
	return append(fields, args...)
}
