// Package model defines the core data types shared across tagscan packages.
//
// It contains the persisted entities (Domain, URL, Tag, RequestRecord),
// the pipeline request/response types, and the aggregate statistics type.
// This package has no dependencies on other internal packages so it can be
// imported from anywhere without creating cycles.
package model
