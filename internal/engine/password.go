// Package engine drives the host-facing protocols: it builds the dispatch
// tables for a format type and implements every slot, including the
// extraction and update orchestrators and password negotiation.
package engine

import (
	"github.com/ferrum-io/hostarc/hostapi"
	"github.com/ferrum-io/hostarc/internal/arcfmt"
)

// queryCapability performs identity-query on a host callback object for a
// secondary capability. The returned release function drops the capability
// reference; it is non-nil exactly when the capability was found.
func queryCapability(cb any, iid hostapi.IID) (any, func()) {
	u, ok := cb.(hostapi.Unknown)
	if !ok {
		return nil, nil
	}
	capability, st := u.QueryInterface(iid)
	if !st.Ok() || capability == nil {
		return nil, nil
	}
	release := func() {
		if cu, ok := capability.(hostapi.Unknown); ok {
			cu.Release()
		}
	}
	return capability, release
}

// readPassword negotiates the decryption-password capability on a callback.
// When the capability is absent, the returned func is nil and format logic
// takes its unencrypted path. Cancellation or failure inside the capability
// surfaces as "no password", never as a hard error.
func readPassword(cb any) (arcfmt.PasswordFunc, func()) {
	capability, release := queryCapability(cb, hostapi.IIDCryptoGetTextPassword)
	if capability == nil {
		return nil, func() {}
	}
	crypto, ok := capability.(hostapi.CryptoGetTextPassword)
	if !ok {
		release()
		return nil, func() {}
	}
	fn := func() (string, bool, error) {
		password, st := crypto.CryptoGetTextPassword()
		if !st.Ok() {
			return "", false, nil
		}
		return password, true, nil
	}
	return fn, release
}

// writePassword negotiates the encryption-password capability on an update
// callback. "Not defined" means the user requested no encryption and is
// distinct from an empty password string.
func writePassword(cb any) (arcfmt.PasswordFunc, func()) {
	capability, release := queryCapability(cb, hostapi.IIDCryptoGetTextPassword2)
	if capability == nil {
		return nil, func() {}
	}
	crypto, ok := capability.(hostapi.CryptoGetTextPassword2)
	if !ok {
		release()
		return nil, func() {}
	}
	fn := func() (string, bool, error) {
		defined, password, st := crypto.CryptoGetTextPassword2()
		if !st.Ok() || !defined {
			return "", false, nil
		}
		return password, true, nil
	}
	return fn, release
}
