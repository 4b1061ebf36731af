// Package domain contains core model types and the interfaces that connect the
// pipeline, scheduler, aggregation engine, and storage layer. It has no
// dependencies on other internal packages.
package domain
