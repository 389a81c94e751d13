package middleware

import (
	"net/http"

	"github.com/courierwatch/courier-tracker/internal/httputil"
)

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}
