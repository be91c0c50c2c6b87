package sentry

import (
	"runtime"
	"time"

	gosentry "github.com/getsentry/sentry-go"
)

// dsn is injected at release build time with
// -ldflags "-X github.com/minecraftwithtwink/Modpack-Updater/internal/sentry.dsn=...".
// Development builds leave it empty, which keeps the package inert.
var dsn = ""

// enabled tracks whether sentry was successfully initialized.
var enabled bool

// Init initializes the Sentry SDK. When telemetryEnabled is false or dsn is
// empty it no-ops and every other function in this package does nothing.
func Init(version string, telemetryEnabled bool) error {
	if !telemetryEnabled || dsn == "" {
		enabled = false
		return nil
	}

	err := gosentry.Init(gosentry.ClientOptions{
		Dsn:              dsn,
		Release:          "modpack-updater@" + version,
		AttachStacktrace: true,
		SampleRate:       1.0,
	})
	if err != nil {
		return err
	}

	gosentry.ConfigureScope(func(scope *gosentry.Scope) {
		scope.SetTag("os", runtime.GOOS)
		scope.SetTag("arch", runtime.GOARCH)
		scope.SetTag("go_version", runtime.Version())
		scope.SetTag("version", version)
	})

	enabled = true
	return nil
}

// IsEnabled returns whether sentry is active.
func IsEnabled() bool {
	return enabled
}

// Flush waits up to 2 seconds for buffered events to be sent.
func Flush() {
	if !enabled {
		return
	}
	gosentry.Flush(2 * time.Second)
}

// RecoverPanic captures a panic to Sentry, flushes, then re-panics.
// Usage: defer sentry.RecoverPanic()
func RecoverPanic() {
	if !enabled {
		return
	}
	if err := recover(); err != nil {
		gosentry.CurrentHub().Recover(err)
		gosentry.Flush(2 * time.Second)
		panic(err)
	}
}

// SetContext tags the scope with the instance being synchronized. The full
// path is never sent, only its base name.
func SetContext(instanceBasename, branch string) {
	if !enabled {
		return
	}
	gosentry.ConfigureScope(func(scope *gosentry.Scope) {
		scope.SetTag("branch", branch)
		scope.SetContext("sync", map[string]interface{}{
			"instance": instanceBasename,
			"branch":   branch,
		})
	})
}

// JobBreadcrumb records a job lifecycle transition so crash reports show
// which background work was running.
func JobBreadcrumb(kind, message string) {
	if !enabled {
		return
	}
	gosentry.AddBreadcrumb(&gosentry.Breadcrumb{
		Level:    gosentry.LevelInfo,
		Category: "job." + kind,
		Message:  message,
	})
}
