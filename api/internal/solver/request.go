package solver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

const dataImagePrefix = "data:image/"

// Validation messages returned to callers verbatim.
const (
	MsgMissingBody   = "Missing request body"
	MsgMalformedBody = "Malformed request body"
	MsgBodyTooLarge  = "Request body too large"
	MsgNoImage       = "No image data received"
	MsgInvalidFormat = "Invalid image format"
)

// AnalysisRequest is the validated body of an analyze call. Image holds the
// data URI exactly as received.
type AnalysisRequest struct {
	Image string
}

type analysisBody struct {
	Image *string `json:"image"`
}

// DecodeRequest reads a JSON body and applies the intake rules in order:
// body present and parseable, image field present, image is a data:image/ URI.
func DecodeRequest(r io.Reader) (AnalysisRequest, error) {
	if r == nil {
		return AnalysisRequest{}, validationError(MsgMissingBody)
	}

	var body analysisBody
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		var (
			tooLarge  *http.MaxBytesError
			wrongType *json.UnmarshalTypeError
		)
		switch {
		case errors.Is(err, io.EOF):
			return AnalysisRequest{}, validationError(MsgMissingBody)
		case errors.As(err, &tooLarge):
			return AnalysisRequest{}, validationError(MsgBodyTooLarge)
		case errors.As(err, &wrongType) && wrongType.Field == "":
			// Valid JSON that is not an object carries no image field.
			return AnalysisRequest{}, validationError(MsgNoImage)
		default:
			return AnalysisRequest{}, &Error{Kind: KindValidation, Message: MsgMalformedBody, Err: err}
		}
	}

	if body.Image == nil {
		return AnalysisRequest{}, validationError(MsgNoImage)
	}
	if err := ValidateDataURI(*body.Image); err != nil {
		return AnalysisRequest{}, err
	}
	return AnalysisRequest{Image: *body.Image}, nil
}

// ValidateDataURI checks only the prefix; the payload is inspected by the
// decoder.
func ValidateDataURI(s string) error {
	if !strings.HasPrefix(s, dataImagePrefix) {
		return validationError(MsgInvalidFormat)
	}
	return nil
}
