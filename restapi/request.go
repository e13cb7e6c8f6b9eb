/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package restapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"code.cloudfoundry.org/bytefmt"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
)

const errMsgInvalidDeflate = "Request body is not a valid deflate stream."

// ContentEncodingDeflate is a value of Content-Encoding header for zlib-compressed request bodies.
const ContentEncodingDeflate = "deflate"

// SetRequestMaxBodySize wraps request body with a reader which limit the number of bytes to read.
// MalformedRequestError with 413 status code is returned by DecodeRequestJSON when maxSizeBytes is exceeded.
func SetRequestMaxBodySize(w http.ResponseWriter, r *http.Request, maxSizeBytes uint64) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxSizeBytes))
}

// MalformedRequestError is an error that occurs in case of incorrect request.
type MalformedRequestError struct {
	HTTPStatusCode int
	Message        string
}

// Error returns a string representation of MalformedRequestError.
func (e *MalformedRequestError) Error() string {
	return e.Message
}

// NewTooLargeMalformedRequestError creates a new MalformedRequestError for case when request body is too large.
func NewTooLargeMalformedRequestError(maxSizeBytes uint64) *MalformedRequestError {
	return &MalformedRequestError{
		http.StatusRequestEntityTooLarge,
		fmt.Sprintf("Request body must not be larger than %s.", bytefmt.ByteSize(maxSizeBytes)),
	}
}

// DecodeRequestJSON reads request body and decodes it as JSON.
// The body compressed with zlib is accepted when "Content-Encoding: deflate" header is set.
func DecodeRequestJSON(r *http.Request, dst interface{}) error {
	if reqContentType := r.Header.Get("Content-Type"); reqContentType != "" {
		contentType, _, err := mime.ParseMediaType(reqContentType)
		if err != nil {
			return &MalformedRequestError{
				http.StatusUnsupportedMediaType,
				fmt.Sprintf("failed to parse Content-Type header for request: %s", err),
			}
		}
		if contentType != ContentTypeAppJSON {
			return &MalformedRequestError{
				http.StatusUnsupportedMediaType,
				fmt.Sprintf("Content-Type %q is not supported.", contentType),
			}
		}
	}

	body := io.Reader(r.Body)
	switch encoding := strings.ToLower(strings.TrimSpace(r.Header.Get("Content-Encoding"))); encoding {
	case "", "identity":
	case ContentEncodingDeflate:
		zr, err := zlib.NewReader(r.Body)
		if err != nil {
			if tooLargeErr := asTooLargeError(err); tooLargeErr != nil {
				return tooLargeErr
			}
			return badRequest(errMsgInvalidDeflate)
		}
		defer zr.Close() // nolint: errcheck
		body = zr
	default:
		return &MalformedRequestError{
			http.StatusUnsupportedMediaType,
			fmt.Sprintf("Content-Encoding %q is not supported.", encoding),
		}
	}

	return decodeRequest(json.NewDecoder(body), dst)
}

func asTooLargeError(err error) *MalformedRequestError {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return NewTooLargeMalformedRequestError(uint64(maxBytesErr.Limit))
	}
	return nil
}

func decodeRequest(decoder *json.Decoder, dst interface{}) error {
	if err := decoder.Decode(&dst); err != nil {
		return classifyDecodeError(err)
	}
	// A webhook call carries exactly one JSON object.
	if decoder.More() {
		return badRequest("Request body must only contain a single JSON object.")
	}
	return nil
}

func badRequest(msg string) *MalformedRequestError {
	return &MalformedRequestError{http.StatusBadRequest, msg}
}

// classifyDecodeError turns errors caused by the client into *MalformedRequestError.
// Other errors (e.g. a broken connection) are returned as is.
func classifyDecodeError(err error) error {
	if tooLargeErr := asTooLargeError(err); tooLargeErr != nil {
		return tooLargeErr
	}

	var (
		syntaxErr        *json.SyntaxError
		unmarshalTypeErr *json.UnmarshalTypeError
		corruptErr       flate.CorruptInputError
	)
	switch {
	case errors.Is(err, io.EOF):
		return badRequest("Request body must not be empty.")
	case errors.Is(err, io.ErrUnexpectedEOF):
		return badRequest("Request body contains badly-formed JSON.")
	case errors.As(err, &syntaxErr):
		return badRequest(fmt.Sprintf("Request body contains badly-formed JSON (at position %d).", syntaxErr.Offset))
	case errors.As(err, &unmarshalTypeErr) && unmarshalTypeErr.Field != "":
		return badRequest(fmt.Sprintf("Request body contains an invalid value for the %q field (at position %d).",
			unmarshalTypeErr.Field, unmarshalTypeErr.Offset))
	case errors.As(err, &unmarshalTypeErr):
		return badRequest(fmt.Sprintf("Request body contains an invalid value of type %q for the field of type %s.",
			unmarshalTypeErr.Value, unmarshalTypeErr.Type.String()))
	case errors.Is(err, zlib.ErrChecksum), errors.Is(err, zlib.ErrHeader), errors.As(err, &corruptErr):
		return badRequest(errMsgInvalidDeflate)
	}
	return err
}
