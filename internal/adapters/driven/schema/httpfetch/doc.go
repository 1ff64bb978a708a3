// Package httpfetch fetches RelaxNG grammars from a remote schema
// registry over HTTP, rate-limited so catalog resolution cannot
// hammer the endpoint.
package httpfetch
