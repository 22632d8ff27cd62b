// Package component defines lifecycle-managed backing services.
//
// A Registry starts components in registration order and stops them in
// reverse, the same ordering scope finalizers follow.
package component
