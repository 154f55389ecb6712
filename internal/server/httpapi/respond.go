package httpapi

import (
	"encoding/json"
	"net/http"
)

const (
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json; charset=utf-8"
	contentTypeHTML   = "text/html; charset=utf-8"
	contentTypeText   = "text/plain; charset=utf-8"
)

// appHandler is a handler that reports failure by returning an error.
type appHandler func(w http.ResponseWriter, r *http.Request) error

// makeHandler adapts an appHandler to http.HandlerFunc. Errors are logged
// and written as {"detail": "..."}.
func (s *Server) makeHandler(h appHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}

		he := toHTTPError(err)
		if he.Code >= http.StatusInternalServerError {
			s.logger.Error(r.Context(), "request failed",
				"method", r.Method, "path", r.URL.Path, "error", err)
		} else {
			s.logger.Debug(r.Context(), "client error",
				"method", r.Method, "path", r.URL.Path, "code", he.Code, "error", err)
		}

		if he.Code == http.StatusUnauthorized {
			w.Header().Set("WWW-Authenticate", "Bearer")
		}
		writeJSON(w, he.Code, map[string]string{"detail": he.Message})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set(headerContentType, contentTypeJSON)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"Internal Server Error"}`))
		return
	}

	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}
