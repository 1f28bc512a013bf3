// Package digest renders the HTML email sent to a recipient: a fixed layout
// listing every matched paper with its links and AI annotations.
package digest
