// Package hostarc bridges format-specific archive logic to a host
// application that drives plugin objects through fixed dispatch tables.
//
// A format author implements Reader (and optionally Updater), registers a
// factory with a Registry, and the bridge takes care of the host's object
// model: dispatch-table construction, reference-counted object identity with
// dual-interface emulation, stream adaptation, tagged-variant property
// marshaling, and the extraction and update protocols with progress
// accounting and password negotiation.
//
// The host-facing contract lives in the hostapi package; ready-made host
// stream handles live in hostio; the tagged variant and FILETIME encoding
// live in variant. The zstore package carries a complete reference format.
package hostarc
