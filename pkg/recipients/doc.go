// Package recipients resolves who receives a digest and with which keywords.
// Recipients come from a JSON config (file or inline), a JSON environment
// variable, or the legacy single-recipient flags, in that order of precedence.
package recipients
