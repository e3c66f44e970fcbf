package solver

import "errors"

// Kind classifies a failure of the intake/inference pipeline.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindValidation
	KindDecode
	KindModelUnavailable
	KindProcessing
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDecode:
		return "decode"
	case KindModelUnavailable:
		return "model_unavailable"
	case KindProcessing:
		return "processing"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the Kind of err, or KindUnknown for errors not raised by
// this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func validationError(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func decodeError(err error) error {
	return &Error{Kind: KindDecode, Message: "Failed to decode image", Err: err}
}

func modelUnavailableError(err error) error {
	return &Error{Kind: KindModelUnavailable, Message: "Failed to load Gemini model", Err: err}
}

func processingError(err error) error {
	return &Error{Kind: KindProcessing, Message: "Error processing image", Err: err}
}
