//go:build !windows && !darwin

package chord

var nativeKeys = map[Key]uint32{}
