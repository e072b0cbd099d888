// Package role reconciles agency-submitted role attributes onto a party's
// service-scoped roles under an agency-scoped authority filter.
package role
