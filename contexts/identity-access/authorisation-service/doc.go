// Package authorisation owns parties, identities, relationships and the
// access graph: who may act for, or view information about, whom.
package authorisation
