// Package api define types and interfaces shared by the allocator
// implementation and its consumers.
package api
