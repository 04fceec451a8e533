package rest

import (
	"net/http"

	"github.com/gofrs/uuid/v5"

	"github.com/oshokin/excel-form-extractor/internal/logger"
)

// HeaderRequestID carries the request ID in both directions.
const HeaderRequestID = "X-Request-ID"

// requestID tags the request with a UUID, reusing a valid incoming one,
// and attaches it to the log context.
func requestID(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.FromString(r.Header.Get(HeaderRequestID))
		if err != nil || id.IsNil() {
			id = uuid.Must(uuid.NewV4())
		}

		w.Header().Set(HeaderRequestID, id.String())

		ctx := logger.WithKV(r.Context(), "request_id", id.String())
		logger.DebugKV(ctx, "HTTP request", "method", r.Method, "path", r.URL.Path)

		next.ServeHTTP(w, r.WithContext(ctx))
	}

	return http.HandlerFunc(fn)
}
