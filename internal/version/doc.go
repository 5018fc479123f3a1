// Package version holds the build metadata of the asnlook binary. Release
// builds inject it through -ldflags; other builds fall back to the module
// version and VCS settings recorded in runtime/debug.BuildInfo.
package version
