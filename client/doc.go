// Package client provides the DSpace REST session client.
//
// A Client owns the repository base URL, the HTTP transport shared with every
// resource accessor, and the session token returned by login. Once the
// client is initialized, the token is attached as the rest-dspace-token
// header to every request it dispatches.
//
// # Quick Start
//
//	c, err := client.Open("https://demo.dspace.org/rest/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	token, err := c.LoginJSON(ctx, model.User{Email: "admin@example.org", Password: pw})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if token == "" {
//	    log.Fatal("login rejected")
//	}
//	defer c.Logout(ctx)
//
//	items, err := c.Collections().Items(ctx, "42", &resource.Query{Limit: 20})
//
// # Two-step construction
//
// New only records configuration. Init builds the default transport when
// none was supplied, installs the token filter and parses the base URL.
// Every network operation on a client that was not initialized returns
// ErrNotInitialized. Open does both steps at once.
//
// # Login rejection
//
// The server signals bad credentials with an empty response body rather
// than an error status. Login then returns "" with a nil error and the
// client is unauthenticated; callers must check the returned token.
package client
