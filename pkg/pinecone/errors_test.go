package pinecone

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorBody_Error(t *testing.T) {
	err := &ErrorBody{Code: 5, Message: "index not found"}

	assert.Equal(t, "index not found (code: 5)", err.Error())
}

func TestParseErrorBody(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    *ErrorBody
		wantErr error
	}{
		{
			name: "full body",
			data: `{"code":3,"message":"bad request","details":[{"field":"dimension"}]}`,
			want: &ErrorBody{Code: 3, Message: "bad request", Details: []MappedValue{{"field": "dimension"}}},
		},
		{
			name: "message only",
			data: `{"message":"quota exceeded"}`,
			want: &ErrorBody{Message: "quota exceeded"},
		},
		{
			name:    "json without schema fields",
			data:    `{"error":"nope"}`,
			wantErr: ErrNotAnErrorBody,
		},
		{
			name: "plain text",
			data: "upstream connect error",
		},
		{
			name: "empty",
			data: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := ParseErrorBody([]byte(tt.data))
			if tt.want != nil {
				require.NoError(t, err)
				assert.Equal(t, tt.want, body)

				return
			}

			require.Error(t, err)
			assert.Nil(t, body)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestServiceError_Error(t *testing.T) {
	structured := &ServiceError{StatusCode: 409, Body: &ErrorBody{Code: 6, Message: "exists"}}
	assert.Equal(t, "service returned 409: exists (code: 6)", structured.Error())
	assert.True(t, structured.Structured())

	raw := &ServiceError{StatusCode: 502, Raw: "bad gateway"}
	assert.Equal(t, "service returned 502: bad gateway", raw.Error())
	assert.False(t, raw.Structured())

	empty := &ServiceError{StatusCode: 500}
	assert.Equal(t, "service returned 500", empty.Error())
}

func TestErrorMessages(t *testing.T) {
	cause := errors.New("connection refused")

	assert.Equal(t, "invalid argument body: found none, expected a request body for POST",
		(&ArgumentError{Name: "body", Found: "none", Expected: "a request body for POST"}).Error())
	assert.Equal(t, "GET https://h/x: transport failure: connection refused",
		(&TransportError{Method: "GET", URL: "https://h/x", Err: cause}).Error())
	assert.Equal(t, "unsupported method: PUT", (&UnsupportedMethodError{Method: "PUT"}).Error())
	assert.Equal(t, `vector "a" has dimension 2, expected 3`,
		(&VectorDimensionError{ID: "a", Found: 2, Expected: 3}).Error())
	assert.Contains(t, (&DecodeError{StatusCode: 200, Err: cause}).Error(), "status 200")
}

func TestErrorPredicates(t *testing.T) {
	notFound := fmt.Errorf("describing index x: %w", &ServiceError{StatusCode: 404})
	conflict := &ServiceError{StatusCode: 409, Body: &ErrorBody{Message: "exists"}}
	unauthorized := &ServiceError{StatusCode: 401, Raw: "unauthorized"}
	transport := fmt.Errorf("upserting: %w", &TransportError{Method: "POST", URL: "u", Err: errors.New("reset")})
	decode := &DecodeError{StatusCode: 200, Err: errors.New("bad json")}
	unavailable := fmt.Errorf("%w: index x is Initializing", ErrResourceURLUnavailable)
	unparsedNotFound := &DecodeError{StatusCode: 404, Body: "no such index", Err: errors.New("bad json")}

	assert.True(t, IsNotFound(notFound))
	assert.False(t, IsNotFound(conflict))
	assert.True(t, IsNotFound(unparsedNotFound))
	assert.False(t, IsNotFound(decode))
	assert.True(t, IsConflict(conflict))
	assert.True(t, IsUnauthorized(unauthorized))
	assert.True(t, IsTransport(transport))
	assert.False(t, IsTransport(decode))
	assert.True(t, IsResourceURLUnavailable(unavailable))
	assert.False(t, IsResourceURLUnavailable(transport))

	assert.Equal(t, 404, StatusCode(notFound))
	assert.Equal(t, 200, StatusCode(decode))
	assert.Equal(t, 0, StatusCode(transport))
	assert.Equal(t, 0, StatusCode(nil))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("eof")

	require.ErrorIs(t, &TransportError{Err: cause}, cause)
	require.ErrorIs(t, &DecodeError{Err: cause}, cause)
}
