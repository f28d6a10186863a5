// Package api serves the scheduling operations over HTTP. It decodes and
// validates requests, calls the review, study and statistics services and
// maps their errors to sanitized JSON responses.
package api
