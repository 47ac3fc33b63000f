// Package provider models the metadata provider definitions lmbridge
// reconciles.
//
// A Definition is the host-owned record (identity, display name, enabled flag)
// and carries a Settings variant keyed by its implementation name. Only
// BridgeSettings, the LM Bridge override, is interpreted; every other
// implementation travels as OpaqueSettings and is left untouched.
//
// The package also owns token normalization for media format lists and the
// field-level validation shown to users when they save a definition.
package provider
