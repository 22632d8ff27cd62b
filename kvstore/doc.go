// Package kvstore provides string and byte key-value stores.
//
// Three backends implement Store: an in-memory map (NewMemory), a JSON file
// on any afero file system (NewFile), and redis (NewRedis). Open builds one
// from a Config. The redis backend is also a component.Component so it can
// be started and health-checked from a component.Registry.
//
// Keys are plain strings. Prefixed scopes a store to keys under a prefix,
// which is how several services share one backend.
package kvstore
