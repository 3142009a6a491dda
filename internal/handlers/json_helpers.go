package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"risk-assessment/internal/apperr"
	"risk-assessment/internal/middleware"
)

// JSONResponse sends a JSON response and ensures slices are never null.
// Frontends iterate over list fields without null checks, so nil slices are encoded as [].
func JSONResponse(w http.ResponseWriter, data interface{}) error {
	return json.NewEncoder(w).Encode(normalizeSlices(data))
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := JSONResponse(w, payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithAppError maps service errors to status codes. Internal errors are
// logged and answered with a generic message.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrInvalidStatus):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrUnauthorized):
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
	case errors.Is(err, apperr.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperr.ErrConflict):
		respondWithError(w, http.StatusConflict, ErrMsgConflict)
	case errors.Is(err, apperr.ErrDependencyUnavailable):
		slog.Error("Dependency unavailable", "path", r.URL.Path, "request_id", middleware.GetRequestID(r.Context()), "error", err)
		respondWithError(w, http.StatusServiceUnavailable, ErrMsgUnavailable)
	default:
		slog.Error("Request failed", "path", r.URL.Path, "request_id", middleware.GetRequestID(r.Context()), "error", err)
		respondWithError(w, http.StatusInternalServerError, ErrMsgInternal)
	}
}

// decodeJSON decodes the request body. Unknown fields such as client computed
// risk scores are ignored.
func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// pathID parses a positive numeric path value
func pathID(r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// queryLimit returns the limit query parameter. Zero means "use the default".
func queryLimit(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, false
	}
	return limit, true
}

// normalizeSlices recursively ensures all nil slices become empty slices
func normalizeSlices(data interface{}) interface{} {
	if data == nil {
		return data
	}

	v := reflect.ValueOf(data)
	timeType := reflect.TypeOf(time.Time{})

	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() || v.Elem().Type() == timeType {
			return data
		}
		normalized := normalizeSlices(v.Elem().Interface())
		result := reflect.New(v.Elem().Type())
		result.Elem().Set(reflect.ValueOf(normalized))
		return result.Interface()

	case reflect.Slice:
		// json.RawMessage and other byte slices are left alone
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return data
		}
		if v.IsNil() {
			return reflect.MakeSlice(v.Type(), 0, 0).Interface()
		}
		result := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			elem := v.Index(i)
			if elem.Kind() == reflect.Interface && elem.IsNil() {
				continue
			}
			result.Index(i).Set(reflect.ValueOf(normalizeSlices(elem.Interface())))
		}
		return result.Interface()

	case reflect.Struct:
		if v.Type() == timeType {
			return data
		}
		result := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			field := v.Field(i)
			if !field.CanInterface() || !result.Field(i).CanSet() {
				continue
			}
			switch field.Kind() {
			case reflect.Slice, reflect.Ptr, reflect.Struct:
				if field.Kind() == reflect.Ptr && field.IsNil() {
					result.Field(i).Set(field)
					continue
				}
				result.Field(i).Set(reflect.ValueOf(normalizeSlices(field.Interface())))
			default:
				result.Field(i).Set(field)
			}
		}
		return result.Interface()
	}

	return data
}
