package chord

// nativeToKey is the reverse of nativeKeys, built once at init.
var nativeToKey = func() map[uint32]Key {
	m := make(map[uint32]Key, len(nativeKeys))
	for k, code := range nativeKeys {
		m[code] = k
	}
	return m
}()

// FromNative translates an OS key code (virtual key on Windows, kVK code on
// macOS) to a Key. Unmapped codes yield KeyUnknown, as does every code on
// platforms without a native hook.
func FromNative(code uint32) Key {
	return nativeToKey[code]
}

// ToNative translates a Key to the OS key code used by the running platform.
func ToNative(k Key) (uint32, bool) {
	code, ok := nativeKeys[k]
	return code, ok
}
