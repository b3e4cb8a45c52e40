// Package main provides the entry point for the GoLDAP-Portal web service.
// It starts a session-backed web portal that authenticates users against an
// LDAP/Active Directory server with a local database fallback, synchronizes
// profile attributes and role flags from directory group membership, and
// serves a small admin area for managing users, synced groups and portal
// settings. The application uses the Fiber framework for the web layer and
// gorm for data persistence.
package main
