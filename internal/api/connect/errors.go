package connect

import (
	"context"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19radio/internal/app/capability"
	"github.com/osa030/19radio/internal/app/catalog"
	"github.com/osa030/19radio/internal/app/schedule"
	"github.com/osa030/19radio/internal/infra/storage"
)

// RejectCodeHeader carries the admission filter code of a rejected track.
const RejectCodeHeader = "Reject-Code"

// toConnectError maps application errors to connect codes. Authentication
// failures carry no detail.
func toConnectError(err error) error {
	var rejected *catalog.RejectedError

	switch {
	case errors.As(err, &rejected):
		cerr := connect.NewError(connect.CodeInvalidArgument, errors.New(rejected.Message))
		cerr.Meta().Set(RejectCodeHeader, rejected.Code)
		return cerr
	case errors.Is(err, capability.ErrInvalidPassword), errors.Is(err, capability.ErrInvalidToken):
		return connect.NewError(connect.CodeUnauthenticated, nil)
	case errors.Is(err, capability.ErrTooManyAttempts):
		return connect.NewError(connect.CodeResourceExhausted, capability.ErrTooManyAttempts)
	case errors.Is(err, schedule.ErrNoSignal):
		return connect.NewError(connect.CodeFailedPrecondition, schedule.ErrNoSignal)
	case errors.Is(err, storage.ErrReadOnly):
		return connect.NewError(connect.CodeFailedPrecondition, storage.ErrReadOnly)
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, catalog.ErrInvalid):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		zlog.Warn().Err(err).Msg("api: request failed")
		return connect.NewError(connect.CodeUnavailable, errors.New("service unavailable"))
	}
}

// RejectCode returns the filter code carried by a client-side error, if any.
func RejectCode(err error) string {
	var cerr *connect.Error
	if !errors.As(err, &cerr) {
		return ""
	}
	return cerr.Meta().Get(RejectCodeHeader)
}
