package http_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pchttp "github.com/fivetwenty-io/pinecone/internal/http"
	"github.com/fivetwenty-io/pinecone/pkg/pinecone"
)

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	t.Run("expected status", func(t *testing.T) {
		t.Parallel()

		resp := &pchttp.Response{StatusCode: 200, Body: []byte(`{"upsertedCount":3}`)}

		result, err := pchttp.DecodeJSON[pinecone.UpsertResponse](resp, 200)
		require.NoError(t, err)
		assert.Equal(t, int64(3), result.UpsertedCount)
	})

	t.Run("expected status with invalid body", func(t *testing.T) {
		t.Parallel()

		resp := &pchttp.Response{StatusCode: 200, Body: []byte(`["not","an","object"]`)}

		result, err := pchttp.DecodeJSON[pinecone.UpsertResponse](resp, 200)
		require.Error(t, err)
		assert.Nil(t, result)

		decodeErr := &pinecone.DecodeError{}
		require.ErrorAs(t, err, &decodeErr)
		assert.Equal(t, 200, decodeErr.StatusCode)
		assert.Equal(t, 200, pinecone.StatusCode(err))
	})

	t.Run("structured service error", func(t *testing.T) {
		t.Parallel()

		resp := &pchttp.Response{
			StatusCode: 409,
			Body:       []byte(`{"code":6,"message":"index exists","details":[{"k":"v"}]}`),
		}

		_, err := pchttp.DecodeJSON[pinecone.IndexDescription](resp, 200)
		require.Error(t, err)

		svcErr := &pinecone.ServiceError{}
		require.ErrorAs(t, err, &svcErr)
		require.True(t, svcErr.Structured())
		assert.Equal(t, 409, svcErr.StatusCode)
		assert.Equal(t, 6, svcErr.Body.Code)
		assert.Equal(t, "index exists", svcErr.Body.Message)
		assert.Equal(t, "v", svcErr.Body.Details[0]["k"])
		assert.Empty(t, svcErr.Raw)
		assert.True(t, pinecone.IsConflict(err))
	})

	t.Run("unparseable error body", func(t *testing.T) {
		t.Parallel()

		for _, body := range []string{"bad gateway", "<html>oops</html>", `{"other":1}`} {
			resp := &pchttp.Response{StatusCode: 502, Body: []byte(body)}

			_, err := pchttp.DecodeJSON[pinecone.IndexDescription](resp, 200)
			require.Error(t, err)

			decErr := &pinecone.DecodeError{}
			require.ErrorAs(t, err, &decErr, body)
			assert.Equal(t, 502, decErr.StatusCode)
			assert.Equal(t, body, decErr.Body)
			assert.Error(t, decErr.Err)

			svcErr := &pinecone.ServiceError{}
			assert.False(t, errors.As(err, &svcErr), body)
		}
	})
}

func TestDecodeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		body       string
		want       string
		structured bool
		wantErr    bool
	}{
		{name: "expected status", status: 201, body: "index created", want: "index created"},
		{name: "empty confirmation", status: 201, body: ""},
		{name: "structured error", status: 404, body: `{"code":5,"message":"not found"}`, structured: true, wantErr: true},
		{name: "plain text error", status: 400, body: "bad dimension", wantErr: true},
		{name: "json without schema fields", status: 400, body: `{"other":1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := pchttp.DecodeText(&pchttp.Response{StatusCode: tt.status, Body: []byte(tt.body)}, 201)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)

				return
			}

			svcErr := &pinecone.ServiceError{}
			require.ErrorAs(t, err, &svcErr)
			assert.Equal(t, tt.status, svcErr.StatusCode)
			assert.Equal(t, tt.structured, svcErr.Structured())

			if !tt.structured {
				assert.Equal(t, tt.body, svcErr.Raw)
			}
		})
	}
}
