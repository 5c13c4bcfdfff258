// Package auth provides authentication handlers for DSpace REST connections.
//
// # Session token
//
// The repository issues an opaque token from POST /login. TokenAuth reads
// the token from a TokenStore on every request and sends it in the
// rest-dspace-token header. It is installed by client.Init; most callers
// never use it directly.
//
// # Gateway authentication
//
// Some deployments publish the REST API behind a web server that requires
// its own credentials before any request reaches DSpace. These
// authenticators wrap the base transport:
//
//   - Basic: HTTP Basic authentication (use only over TLS)
//   - NTLM: NT LAN Manager authentication (via github.com/Azure/go-ntlmssp)
//
// # Usage
//
//	tr := transport.NewHTTPTransport(
//	    transport.WithAuthenticator(auth.NewNTLMAuth(auth.Credentials{
//	        Username: "svc-dspace",
//	        Password: "password",
//	        Domain:   "CORP",
//	    })),
//	)
//	c := client.New("https://repository.example.org/rest", tr)
package auth
