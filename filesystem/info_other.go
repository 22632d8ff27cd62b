//go:build !linux

package filesystem

func fillSys(*Info, any) {}
