package internal

// Version of sheettrans, overridden at build time with
// -ldflags "-X codeberg.org/snonux/sheettrans/internal.Version=..."
var Version = "0.4.0"
