// Package store holds the in-memory canonical store: orders, the product
// catalog and sale flows. Every read returns copies so callers never share
// state with the store.
package store
