// Package dspace provides a client for the DSpace REST API.
//
// The client logs in to a repository, keeps the session token and sends it
// as the rest-dspace-token header on every later request. Resource accessors
// browse and edit communities, collections, items and bitstreams, and
// resolve persistent handles.
//
// # Architecture
//
// The library is organized into layers:
//
//	┌─────────────────────────────────────────────────────────┐
//	│  client/       Session shell: Init, Login, Logout       │
//	├─────────────────────────────────────────────────────────┤
//	│  resource/     Root, Communities, Collections, Items,   │
//	│                Bitstreams, Handle                       │
//	├─────────────────────────────────────────────────────────┤
//	│  auth/         Token filter, proxy Basic/NTLM auth      │
//	├─────────────────────────────────────────────────────────┤
//	│  transport/    HTTP, JSON/XML codecs, middleware chain  │
//	└─────────────────────────────────────────────────────────┘
//
// model/ holds the wire types and metrics/ instruments the transport with
// Prometheus collectors.
//
// # Quick Start
//
//	c, err := client.Open("https://demo.dspace.org/rest/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	token, err := c.LoginJSON(ctx, model.User{Email: "admin@example.org", Password: "secret"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if token == "" {
//	    log.Fatal("login rejected")
//	}
//	defer c.Logout(ctx)
//
//	top, err := c.Communities().TopCommunities(ctx, nil)
package dspace
