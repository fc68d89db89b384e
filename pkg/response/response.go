package response

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

var EmptyRequestBodyResponse = Response{
	Status:  StatusError,
	Error:   "Empty Request Body",
	Message: "Request body is empty. Please provide necessary data.",
}

var BadRequestResponse = Response{
	Status:  StatusError,
	Error:   "Bad Request",
	Message: "Failed to process the request. Please check the request data.",
}

var ResourceNotFoundResponse = Response{
	Status:  StatusError,
	Error:   "Resource Not Found",
	Message: "The requested resource was not found.",
}

var CodeExistsResponse = Response{
	Status:  StatusError,
	Error:   "Code Exists",
	Message: "The requested code is already taken. Please choose another one.",
}

var ServerErrorResponse = Response{
	Status:  StatusError,
	Error:   "Server Error",
	Message: "An internal server error occurred. Please try again later.",
}

type Response struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
	Details []any  `json:"details,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func SuccessResponse(msg string, data ...any) Response {
	resp := Response{
		Status:  StatusSuccess,
		Message: msg,
	}

	if len(data) > 0 {
		resp.Data = data[0]
	}

	return resp
}

type validationError struct {
	Field string `json:"field"`
	Value any    `json:"value"`
	Issue string `json:"issue"`
}

func getValidationErrors(err error) []validationError {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return nil
	}

	errs := make([]validationError, 0, len(validationErrs))

	for _, vErr := range validationErrs {
		issue := "Invalid value."

		switch vErr.Tag() {
		case "required":
			issue = "This field is required."
		case "url":
			issue = "Invalid url."
		case "alphanum":
			issue = "Must contain only letters and numbers."
		case "min":
			issue = "Too short."
		case "max":
			issue = "Too long."
		}

		errs = append(errs, validationError{
			Field: vErr.Field(),
			Value: vErr.Value(),
			Issue: issue,
		})
	}

	return errs
}

func ValidationErrorResponse(err error) Response {
	resp := Response{
		Status:  StatusError,
		Error:   "Validation Error",
		Message: "The request data failed validation. Please check the details.",
	}

	for _, vErr := range getValidationErrors(err) {
		resp.Details = append(resp.Details, vErr)
	}

	return resp
}
