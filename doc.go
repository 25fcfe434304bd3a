// Package procwise implements a configurable multi-step business-process
// workflow engine: reusable process templates with ordered steps and
// dynamic per-step form schemas, process instances executed sequentially
// against client records, per-template access control and read-only
// process reports.
//
// The root Service wires the components together with in-memory defaults;
// see the api package for the HTTP surface and service/dao/sqlstore for
// the PostgreSQL backend.
package procwise
