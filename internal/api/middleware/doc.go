// Package middleware provides the HTTP middleware shared by all routes.
package middleware
