// Package paper defines the paper record read from the enriched arXiv dataset
// and loads newline-delimited JSON files into memory.
package paper
