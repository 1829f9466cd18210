package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
)

const maxNormalizedBody = 1 << 20

// NormalizeBody accepts the two encodings clients send for the same payload:
// a plain JSON object, or the object serialized into a string field named
// "data" (either {"data":"<json>"} or a form field). Wrapped payloads are
// replaced by the inner JSON so handlers bind a single shape.
func NormalizeBody() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.Method == http.MethodGet || req.Method == http.MethodDelete {
				return next(c)
			}
			ct := req.Header.Get(echo.HeaderContentType)
			switch {
			case strings.HasPrefix(ct, echo.MIMEApplicationJSON):
				raw, err := io.ReadAll(io.LimitReader(req.Body, maxNormalizedBody))
				if err != nil {
					return c.JSON(http.StatusBadRequest, echo.Map{"message": "unreadable request body"})
				}
				_ = req.Body.Close()
				if inner, ok := unwrapData(raw); ok {
					raw = inner
				}
				setJSONBody(req, raw)
			case strings.HasPrefix(ct, echo.MIMEApplicationForm), strings.HasPrefix(ct, echo.MIMEMultipartForm):
				data := c.FormValue("data")
				if data != "" && json.Valid([]byte(data)) {
					setJSONBody(req, []byte(data))
				}
			}
			return next(c)
		}
	}
}

// unwrapData returns the inner JSON object of {"data":"<json>"}.
func unwrapData(raw []byte) ([]byte, bool) {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil || len(env) != 1 {
		return nil, false
	}
	field, ok := env["data"]
	if !ok {
		return nil, false
	}
	var s string
	if err := json.Unmarshal(field, &s); err != nil {
		return nil, false
	}
	inner := bytes.TrimSpace([]byte(s))
	if len(inner) == 0 || inner[0] != '{' || !json.Valid(inner) {
		return nil, false
	}
	return inner, true
}

func setJSONBody(req *http.Request, raw []byte) {
	req.Body = io.NopCloser(bytes.NewReader(raw))
	req.ContentLength = int64(len(raw))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
}
