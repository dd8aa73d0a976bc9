package connect

import (
	"context"

	"connectrpc.com/connect"

	"github.com/osa030/19radio/internal/api/radiov1/radiov1connect"
)

const (
	// AdminTokenHeader is the header name for admin authentication token.
	AdminTokenHeader = "X-Admin-Token"
)

// TokenVerifier validates capability tokens.
type TokenVerifier interface {
	Verify(token string) error
}

// NewAdminAuthInterceptor creates an interceptor that validates admin tokens
// from request metadata for AdminService methods. Login is exempt.
func NewAdminAuthInterceptor(verifier TokenVerifier) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if req.Spec().Procedure == radiov1connect.AdminServiceLoginProcedure {
				return next(ctx, req)
			}

			token := req.Header().Get(AdminTokenHeader)
			if token == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, nil)
			}
			if err := verifier.Verify(token); err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, nil)
			}

			return next(ctx, req)
		}
	}
}

// NewTokenInterceptor attaches a token to every outgoing request.
func NewTokenInterceptor(token func() string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if req.Spec().IsClient {
				if t := token(); t != "" {
					req.Header().Set(AdminTokenHeader, t)
				}
			}
			return next(ctx, req)
		}
	}
}
