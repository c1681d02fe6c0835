// Package version reports the build version, falling back to git when
// the binary was built without ldflags.
package version

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Name is the program name shown in version output.
const Name = "bus-counter-tui"

var (
	// These are set via ldflags at build time
	Version = ""
	Commit  = ""
	Date    = ""

	once sync.Once

	execCommand = exec.CommandContext
)

const gitTimeout = 2 * time.Second

func ensureInitialized() {
	once.Do(func() {
		if Date == "" {
			Date = time.Now().Format(time.DateOnly)
		}
		if Commit == "" {
			Commit = gitOutput("describe", "--always", "--dirty")
			if Commit == "" {
				Commit = "unknown"
			}
		}
		if Version == "" {
			Version = strings.TrimPrefix(gitOutput("describe", "--tags", "--abbrev=0"), "v")
			if Version == "" {
				Version = "dev"
			}
		}
	})
}

// gitOutput runs git with args and returns its trimmed stdout, or "" on
// any failure.
func gitOutput(args ...string) string {
	ctx, cancel := context.WithTimeout(context.Background(), gitTimeout)
	defer cancel()

	cmd := execCommand(ctx, "git", args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return ""
	}
	return strings.TrimSpace(out.String())
}

// Reset clears values resolved from git so they are looked up again.
func Reset() {
	Version, Commit, Date = "", "", ""
	once = sync.Once{}
}

// GetVersion returns the release version, "dev" when unknown.
func GetVersion() string {
	ensureInitialized()
	return Version
}

// GetCommit returns the source revision.
func GetCommit() string {
	ensureInitialized()
	return Commit
}

// GetDate returns the build date.
func GetDate() string {
	ensureInitialized()
	return Date
}

// Info returns the one-line version banner.
func Info() string {
	ensureInitialized()
	return fmt.Sprintf("%s %s (commit: %s, built: %s, %s/%s)",
		Name, Version, Commit, Date, runtime.GOOS, runtime.GOARCH)
}
