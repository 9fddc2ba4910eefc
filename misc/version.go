// Package misc holds program identity. Version and hash are set at build
// time with -ldflags "-X h2d/misc.version=... -X h2d/misc.gitHash=...".
package misc

const appName = "h2d"

var (
	version = "dev"
	gitHash = "unknown"
)

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}
