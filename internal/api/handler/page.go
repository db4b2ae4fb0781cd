package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/talk2dom/web/internal/api/middleware"
	"github.com/talk2dom/web/internal/api/response"
	"github.com/talk2dom/web/internal/paging"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// pageParams reads limit and offset from the query. limit must be one of
// sizes; a missing limit is def and a missing offset is 0.
func pageParams(r *http.Request, sizes []int, def int) (limit, offset int, err error) {
	limit, offset = def, 0

	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || !paging.ValidSize(sizes, limit) {
			return 0, 0, fmt.Errorf("limit must be one of %v", sizes)
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		offset, err = strconv.Atoi(v)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("offset must be a non-negative integer")
		}
	}
	return limit, offset, nil
}

// readPageParams is pageParams that writes the 400 itself.
func readPageParams(w http.ResponseWriter, r *http.Request, sizes []int, def int) (int, int, bool) {
	limit, offset, err := pageParams(r, sizes, def)
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_PARAM", err.Error(), middleware.GetRequestID(r.Context()))
		return 0, 0, false
	}
	return limit, offset, true
}

func writePage[T any](w http.ResponseWriter, r *http.Request, page paging.Page[T]) {
	response.SuccessList(w, http.StatusOK, page.Items, paging.ViewOf(page), middleware.GetRequestID(r.Context()))
}

// writePageAs writes a page after converting its items.
func writePageAs[T, U any](w http.ResponseWriter, r *http.Request, page paging.Page[T], conv func(T) U) {
	items := make([]U, len(page.Items))
	for i, it := range page.Items {
		items[i] = conv(it)
	}
	response.SuccessList(w, http.StatusOK, items, paging.ViewOf(page), middleware.GetRequestID(r.Context()))
}

// decodeJSON decodes the request body into v, writing the 400 itself.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	return decodeJSONLimit(w, r, v, maxBodyBytes)
}

func decodeJSONLimit(w http.ResponseWriter, r *http.Request, v any, limit int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}
