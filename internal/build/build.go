// Package build holds build-time information.
package build

// Version is the application version.
// It defaults to "dev" and can be overwritten by linker flags.
var Version = "dev"

// Commit is the git commit the binary was built from.
// It defaults to "" and can be overwritten by linker flags.
var Commit = ""

// Date is the build timestamp, in RFC 3339 form.
// It defaults to "" and can be overwritten by linker flags.
var Date = ""
