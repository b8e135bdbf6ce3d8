// Package integration contains the domain model for synchronizing store
// state with the upstream ERP: sync jobs and their retry/dead-letter
// lifecycle, identifier mappings between local entities and ERP documents,
// the append-only sync log, and the error taxonomy shared by the transport
// and queue layers.
package integration
