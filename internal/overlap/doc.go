// Package overlap detects conflicts between a candidate UTM sub-channel rule
// and the sub-channels already registered under the same parent channel.
//
// Validate is a pure function: it never mutates its inputs, keeps no state
// between calls and is safe for concurrent use. Both the live form check and
// the authoritative server check call it; they differ only in the Strategy
// they pass.
package overlap
