package lockstep

// Version is the release of the lockstep module, reported by the CLI and adapters.
var Version = "0.4.0"
