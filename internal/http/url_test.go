package http_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	pchttp "github.com/fivetwenty-io/pinecone/internal/http"
)

func TestControllerURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://controller.us-east1-gcp.pinecone.io/collections",
		pchttp.ControllerURL("us-east1-gcp", "/collections"))
}

func TestResourceURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		host string
		want string
	}{
		{"bare host", "movies-abc.svc.pinecone.io", "https://movies-abc.svc.pinecone.io/query"},
		{"https host", "https://host", "https://host/query"},
		{"http host with trailing slash", "http://127.0.0.1:8080/", "http://127.0.0.1:8080/query"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, pchttp.ResourceURL(tt.host, "/query"))
		})
	}
}

func TestFetchURL(t *testing.T) {
	t.Parallel()

	base := pchttp.ResourceURL("host", "/vectors/fetch")

	tests := []struct {
		name      string
		ids       []string
		namespace string
		want      string
	}{
		{
			name:      "ids and namespace",
			ids:       []string{"A", "B"},
			namespace: "ns1",
			want:      "https://host/vectors/fetch?ids=A&ids=B&namespace=ns1",
		},
		{
			name: "single id without namespace",
			ids:  []string{"A"},
			want: "https://host/vectors/fetch?ids=A",
		},
		{
			name: "duplicates are kept",
			ids:  []string{"A", "A"},
			want: "https://host/vectors/fetch?ids=A&ids=A",
		},
		{
			name:      "namespace only",
			namespace: "ns1",
			want:      "https://host/vectors/fetch?namespace=ns1",
		},
		{
			name: "nothing",
			want: "https://host/vectors/fetch",
		},
		{
			name:      "values are escaped",
			ids:       []string{"a b", "x&y"},
			namespace: "n=1",
			want:      "https://host/vectors/fetch?ids=a+b&ids=x%26y&namespace=n%3D1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, pchttp.FetchURL(base, tt.ids, tt.namespace))
		})
	}
}
