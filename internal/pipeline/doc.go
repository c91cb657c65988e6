// Package pipeline turns graph encodings into stored fingerprints.
//
// Run drains a source.Source through a bounded worker pool: each line is
// decoded, classified under every configured matrix kind and handed to a
// single batched writer. A malformed line or a kind whose solver fails is
// logged and counted, never fatal, so one bad graph cannot stop a
// generation run. Retry revisits graphs whose fingerprints are still
// absent and fills them in place.
package pipeline
