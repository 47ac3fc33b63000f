// Package preflight provides readiness checks for the state directory and the
// LM Bridge service that lmbridge depends on.
//
// The CLI "lmbridge status" command and the daemon status endpoint both use
// these checks. Checks never mutate anything: a failing check only reports.
package preflight
