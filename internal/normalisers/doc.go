// Package normalisers holds text cleaners applied to imported file content
// before it is stored as a document summary.
package normalisers
