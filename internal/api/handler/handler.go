// Package handler implements the REST surface of the development backend
// over a memstore.Store.
package handler

import (
	"net/http"
	"strconv"

	"github.com/howlrs/pos-qr-go/internal/models"
)

// listParams reads the common list query parameters
func listParams(r *http.Request) models.ListParams {
	q := r.URL.Query()
	p := models.ListParams{
		Search: q.Get("search"),
		Status: q.Get("status"),
	}
	p.Page, _ = strconv.Atoi(q.Get("page"))
	p.Limit, _ = strconv.Atoi(q.Get("limit"))
	if v, err := strconv.ParseBool(q.Get("isActive")); err == nil {
		p.IsActive = &v
	}
	return p
}
