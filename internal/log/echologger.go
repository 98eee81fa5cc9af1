package log

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Logger returns echo middleware that logs one line per request.
func Logger(l *zap.Logger, name string) echo.MiddlewareFunc {
	if l == nil {
		panic("log.Logger received a nil *zap.Logger")
	}

	logger := l.Named(name)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			t1 := time.Now()
			err := next(c)
			if err != nil {
				// let the error handler write the response so the status is final
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			statusCode := res.Status
			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = res.Header().Get(echo.HeaderXRequestID)
			}

			fields := []zap.Field{
				zap.String("type", "http_request"),
				zap.String("request_id", requestID),
				zap.String("http_method", req.Method),
				zap.String("http_path", req.URL.Path),
				zap.String("remote_addr", c.RealIP()),
				zap.Int("http_status_code", statusCode),
				zap.String("http_status_text", statusLabel(statusCode)),
				zap.Int64("response_bytes", res.Size),
				zap.Duration("latency", time.Since(t1)),
				zap.String("user_agent", req.UserAgent()),
			}

			msg := fmt.Sprintf("HTTP request completed: %s", req.URL.Path)

			switch {
			case statusCode >= 500:
				logger.Error(msg, fields...)
			case statusCode >= 400:
				logger.Warn(msg, fields...)
			default:
				if isHealthCheck(req.Method, req.URL.Path) {
					logger.Debug(msg, fields...)
				} else {
					logger.Info(msg, fields...)
				}
			}
			return nil
		}
	}
}

func isHealthCheck(method string, path string) bool {
	return method == http.MethodGet && (path == "/api/health" || path == "/metrics")
}

func statusLabel(status int) string {
	switch {
	case status >= 100 && status < 300:
		return fmt.Sprintf("%d OK", status)
	case status >= 300 && status < 400:
		return fmt.Sprintf("%d Redirect", status)
	case status >= 400 && status < 500:
		return fmt.Sprintf("%d Client Error", status)
	case status >= 500:
		return fmt.Sprintf("%d Server Error", status)
	default:
		return fmt.Sprintf("%d Unknown", status)
	}
}
