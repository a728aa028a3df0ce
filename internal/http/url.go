package http

import (
	"net/url"
	"strings"

	"github.com/fivetwenty-io/pinecone/internal/constants"
)

// ControllerURL returns the account-level URL for path in the given environment.
func ControllerURL(environment, path string) string {
	return constants.DefaultScheme + "://" + constants.ControllerHostPrefix + environment + "." +
		constants.ServiceDomain + path
}

// ResourceURL returns the data-plane URL for path on host. A host that already
// carries a scheme is used as the base unchanged.
func ResourceURL(host, path string) string {
	if hasScheme(host) {
		return strings.TrimRight(host, "/") + path
	}

	return constants.DefaultScheme + "://" + host + path
}

// FetchURL appends the fetch query to base: one ids parameter per id in the
// given order, then the namespace when it is not empty. With neither ids nor
// a namespace base is returned as is.
func FetchURL(base string, ids []string, namespace string) string {
	if len(ids) == 0 && namespace == "" {
		return base
	}

	var b strings.Builder

	b.WriteString(base)
	b.WriteByte('?')

	for _, id := range ids {
		b.WriteString("ids=")
		b.WriteString(url.QueryEscape(id))
		b.WriteByte('&')
	}

	if namespace != "" {
		b.WriteString("namespace=")
		b.WriteString(url.QueryEscape(namespace))

		return b.String()
	}

	return strings.TrimSuffix(b.String(), "&")
}

// ConnectionControllerURL builds the controller URL for conn, honouring a
// controller override configured on its transport.
func ConnectionControllerURL(conn Connection, path string) string {
	return conn.Transport().ControllerURL(conn.Credentials().Environment(), path)
}

func hasScheme(host string) bool {
	return strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://")
}
