// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the run lifecycle of one process, which
// hosts either every rank of a local world or a single rank of a socket
// world, decoupled from any specific entrypoint like a CLI.
package app
