package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"PEERMATCH_BACK-END/internal/dto"
)

// maxRequestBody caps JSON request bodies. A full week of slots is well below it.
const maxRequestBody = 1 << 20

// WriteJSONResponse writes a JSON response to the HTTP response writer
func WriteJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// WriteErrorResponse writes the standard error envelope
func WriteErrorResponse(w http.ResponseWriter, status int, errMsg, message string) {
	WriteJSONResponse(w, status, dto.ErrorResponse{Error: errMsg, Message: message})
}

// DecodeJSONRequest decodes the request body into dst. On failure it writes a
// 400 response and returns the error, so callers only need to return.
func DecodeJSONRequest(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		msg := err.Error()
		if errors.Is(err, io.EOF) {
			msg = "request body is empty"
		}
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", msg)
		return err
	}
	if dec.More() {
		err := fmt.Errorf("request body must contain a single JSON object")
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return err
	}
	return nil
}
