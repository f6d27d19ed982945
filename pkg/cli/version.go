package cli

// Version is the running release, overridden at build time with
// -ldflags "-X github.com/Fepozopo/xray/pkg/cli.Version=1.2.3".
var Version = "0.1.0"
