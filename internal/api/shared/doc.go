// Package shared holds the request decoding, response writing and trace id
// helpers used by the api handlers and middleware.
package shared
