// Package version reports build information and the User-Agent string.
package version
