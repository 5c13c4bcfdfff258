// Package model defines the objects exchanged with the DSpace REST API.
//
// Field names follow the JSON representation of the DSpace 5/6 REST API.
// Identifiers are kept as strings so both numeric (DSpace 5) and UUID
// (DSpace 6) ids decode into the same type.
package model
