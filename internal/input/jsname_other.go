//go:build !linux

package input

func kernelName(string) string { return "" }
