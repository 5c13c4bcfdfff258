// Package resource provides typed accessors for the DSpace REST resources:
// the API root (login, logout, status), communities, collections, items,
// bitstreams and handle resolution.
//
// Accessors are bound to a transport and a parsed base URL. They are
// normally obtained from a client.Client, which supplies the shared
// transport carrying the session token:
//
//	c, err := client.Open("https://demo.dspace.org/rest")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	top, err := c.Communities().TopCommunities(ctx, nil)
//
// Every call maps to one HTTP request. Errors from the transport are
// returned unchanged; use errors.Is(err, transport.ErrNotFound) and friends
// to inspect them.
package resource
