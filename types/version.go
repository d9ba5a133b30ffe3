package types

// Version is the canonical project version.
// The CLI, server, and stream framing share this version.
const Version = "0.2.0"
