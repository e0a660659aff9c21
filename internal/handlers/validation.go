package handlers

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/01moynul/keyu-storefront/internal/apperr"
)

// FieldErrors maps a request field (its json name) to a message.
type FieldErrors map[string]string

// bindError turns a ShouldBind failure into a 400 with per-field messages.
// dst is the struct that was bound, used to read json tags.
func bindError(err error, dst any) error {
	return apperr.InvalidErr("Please correct the highlighted fields.", fromBindError(err, dst))
}

func fromBindError(err error, dst any) FieldErrors {
	out := FieldErrors{}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fieldKey(dst, fe.StructField())] = messageForTag(fe.Tag(), fe.Param())
		}
		return out
	}

	// malformed body, wrong types
	out["_"] = "Request body is not valid."
	return out
}

func fieldKey(dst any, structField string) string {
	t := reflect.TypeOf(dst)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return strings.ToLower(structField)
	}

	f, ok := t.FieldByName(structField)
	if !ok {
		return strings.ToLower(structField)
	}
	tag := f.Tag.Get("json")
	if i := strings.Index(tag, ","); i >= 0 {
		tag = tag[:i]
	}
	if tag == "" || tag == "-" {
		return strings.ToLower(structField)
	}
	return tag
}

func messageForTag(tag, param string) string {
	switch tag {
	case "required":
		return "This field is required."
	case "url":
		return "Enter a valid URL."
	case "min":
		return "Must be at least " + param + " characters."
	case "max":
		return "Must be at most " + param + " characters."
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(param, " ", ", ") + "."
	default:
		return "Invalid value."
	}
}
