package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Rrens/finance-ai/internal/api/response"
)

var validate = validator.New()

// decode reads a JSON body into dst and validates it. It writes the 400
// response itself and returns false on failure. An empty body is accepted
// when allowEmpty is set.
func decode(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			response.BadRequest(w, "invalid request body")
			return false
		}
	}

	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			response.BadRequest(w, fieldErrors(validationErrors))
			return false
		}
		response.BadRequest(w, err.Error())
		return false
	}
	return true
}

func fieldErrors(validationErrors validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		field := e.Field()
		switch tag := e.Tag(); tag {
		case "required":
			out[field] = "field is required"
		case "email":
			out[field] = "invalid email format"
		case "min":
			out[field] = "must be at least " + e.Param() + " characters"
		case "max":
			out[field] = "must be at most " + e.Param() + " characters"
		case "oneof":
			out[field] = "must be one of: " + e.Param()
		default:
			out[field] = "validation failed on " + tag
		}
	}
	return out
}

func chatIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "chatID"))
	if err != nil {
		response.BadRequest(w, "invalid chat ID")
		return uuid.Nil, false
	}
	return id, true
}
