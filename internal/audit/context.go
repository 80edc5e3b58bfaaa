package audit

import "context"

type contextKey string

const requestKey contextKey = "audit_request"

// Request is the client metadata attached to activity rows.
type Request struct {
	IP        string
	UserAgent string
}

func WithRequest(ctx context.Context, req Request) context.Context {
	return context.WithValue(ctx, requestKey, req)
}

func RequestFromContext(ctx context.Context) Request {
	req, _ := ctx.Value(requestKey).(Request)
	return req
}
