package http

import (
	"encoding/json"

	"github.com/fivetwenty-io/pinecone/pkg/pinecone"
)

// DecodeJSON turns resp into a T when its status equals expected. Any other
// status becomes a structured ServiceError, or a DecodeError when the body
// does not match the error schema.
func DecodeJSON[T any](resp *Response, expected int) (*T, error) {
	if resp.StatusCode != expected {
		errBody, err := pinecone.ParseErrorBody(resp.Body)
		if err != nil {
			return nil, &pinecone.DecodeError{
				StatusCode: resp.StatusCode,
				Body:       string(resp.Body),
				Err:        err,
			}
		}

		return nil, &pinecone.ServiceError{StatusCode: resp.StatusCode, Body: errBody}
	}

	var result T

	err := json.Unmarshal(resp.Body, &result)
	if err != nil {
		return nil, &pinecone.DecodeError{
			StatusCode: resp.StatusCode,
			Body:       string(resp.Body),
			Err:        err,
		}
	}

	return &result, nil
}

// DecodeText returns the body as text when the status equals expected. Any
// other status becomes a ServiceError, structured when the body matches the
// error schema and carrying the raw text otherwise.
func DecodeText(resp *Response, expected int) (string, error) {
	if resp.StatusCode != expected {
		return "", serviceError(resp)
	}

	return string(resp.Body), nil
}

func serviceError(resp *Response) *pinecone.ServiceError {
	errBody, err := pinecone.ParseErrorBody(resp.Body)
	if err != nil {
		return &pinecone.ServiceError{StatusCode: resp.StatusCode, Raw: string(resp.Body)}
	}

	return &pinecone.ServiceError{StatusCode: resp.StatusCode, Body: errBody}
}
