// Package handler implements the HTTP surface over chi: one file per
// component, each translating domain errors to the {result,data|error}
// envelope via domain.CodeForError.
package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/domain"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/middleware"
)

var validate = validator.New()

func writeSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"result": "success", "data": data})
}

func writeFail(w http.ResponseWriter, code domain.APICode, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"result": "fail",
		"error":  map[string]any{"code": code, "msg": msg},
	})
}

// writeError translates a service-layer error through domain.CodeForError,
// logging the cases that fall through unmapped.
func writeError(w http.ResponseWriter, err error) {
	code, status, ok := domain.CodeForError(err)
	if !ok {
		log.Error().Err(err).Msg("handler: unmapped error")
		writeFail(w, 0, "internal server error", http.StatusInternalServerError)
		return
	}
	writeFail(w, code, err.Error(), status)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func readAll(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

func userID(r *http.Request) int64 {
	id, _ := middleware.GetUserID(r.Context())
	return id
}
