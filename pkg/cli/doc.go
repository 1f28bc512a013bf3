// Package cli defines the runtime configuration of the paper-digest binary:
// command-line flags, their environment variable fallbacks, the optional
// dotenv file and the SMTP settings that are read from the environment only.
package cli
