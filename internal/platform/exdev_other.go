//go:build !unix

package platform

func isEXDEV(error) bool { return false }
