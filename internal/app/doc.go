// Package app contains the two run flows, counting events over local files
// and resolving catalog datasets, decoupled from flag parsing and process
// exit handling so both can be driven directly from tests.
package app
