// Package connectors holds the sources documents are imported from.
// Each connector feeds records through the document service, so imported
// documents are validated and stored like any other.
package connectors
