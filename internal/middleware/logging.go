package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"PEERMATCH_BACK-END/internal/utils"
)

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

// RequestLogger logs one line per request and turns panics into a 500.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			defer func() {
				if err := recover(); err != nil {
					logger.Error("Unhandled panic",
						zap.Any("error", err),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.Bool("response_started", rec.wroteHeader),
					)
					// A started response cannot be replaced; the client sees it cut short.
					if !rec.wroteHeader {
						utils.WriteErrorResponse(rec, http.StatusInternalServerError,
							"Internal Server Error", "An unexpected error occurred. Please try again later.")
					}
				}

				logger.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", rec.status),
					zap.Duration("duration", time.Since(start)),
					zap.String("ip", clientIP(r, false)),
				)
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
