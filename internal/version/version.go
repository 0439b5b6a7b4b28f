package version

// Version is the mcsplit release tag. Overridden at build time via
// -ldflags "-X mcsplit/internal/version.Version=...".
var Version = "0.4.0"
