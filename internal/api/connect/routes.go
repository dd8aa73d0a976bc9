package connect

import (
	"net/http"

	"connectrpc.com/connect"

	"github.com/osa030/19radio/internal/api/radiov1/radiov1connect"
)

// Mount registers both services on mux. Admin calls other than Login need a
// token accepted by verifier.
func Mount(mux *http.ServeMux, stationSvc *StationService, adminSvc *AdminService, verifier TokenVerifier, opts ...connect.HandlerOption) {
	path, handler := radiov1connect.NewStationServiceHandler(stationSvc, opts...)
	mux.Handle(path, handler)

	adminOpts := append([]connect.HandlerOption{}, opts...)
	adminOpts = append(adminOpts, connect.WithInterceptors(NewAdminAuthInterceptor(verifier)))
	path, handler = radiov1connect.NewAdminServiceHandler(adminSvc, adminOpts...)
	mux.Handle(path, handler)
}
