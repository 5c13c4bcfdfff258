// Package transport provides the HTTP transport shared by the DSpace client
// and its resource accessors.
//
// The transport layer handles:
//   - HTTP/HTTPS connections and TLS configuration
//   - Body codecs (JSON and XML registered by default)
//   - A request middleware chain, used for the session token header,
//     logging, metrics and client-side limits
//   - Mapping error statuses to HTTPError
package transport
