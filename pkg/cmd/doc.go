// Package cmd implements the cobra command tree of the paper-digest binary:
// the root command that runs a digest round and the version subcommand.
package cmd
