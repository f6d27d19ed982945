package stdimg

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode is matched by every *DecodeError.
	ErrDecode = errors.New("decode error")
	// ErrInvalidParameter is matched by every *ParamError.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInvalidTechnique reports an unknown or nil technique.
	ErrInvalidTechnique = errors.New("invalid technique")
	// ErrNilImage reports a nil source image.
	ErrNilImage = errors.New("source image is nil")
	// ErrTooManyPixels reports an image whose header declares more pixels
	// than the decoder accepts.
	ErrTooManyPixels = errors.New("image dimensions too large")
)

// DecodeError wraps a failure to turn raw bytes into a grayscale image.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("decode %s: unreadable image data", e.Op)
	}
	return fmt.Sprintf("decode %s: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDecode}
	}
	return []error{ErrDecode, e.Err}
}

// ParamError describes a rejected technique parameter.
type ParamError struct {
	Technique string
	Param     string
	Value     string
	Reason    string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: parameter %s=%s: %s", e.Technique, e.Param, e.Value, e.Reason)
}

func (e *ParamError) Unwrap() error { return ErrInvalidParameter }

func invalidTechnique(name string) error {
	return fmt.Errorf("%w: %q", ErrInvalidTechnique, name)
}
