package modules

import (
	"runtime/debug"
	"sync"
	"time"
)

const (
	AppName        = "Agentic Weaver"
	AppVersion     = "0.3.0"
	AppDescription = "Workplace assistant with knowledge, automation and user administration"
)

// buildHash can be stamped at link time:
//
//	go build -ldflags "-X github.com/fpokrzywa/weaver-live/cli/modules.buildHash=..."
var (
	buildHash     string
	buildHashOnce sync.Once
)

// BuildHash identifies the build as YYMMDD-rev8, from the VCS stamp when no
// value was linked in. Local builds without VCS info report "dev".
func BuildHash() string {
	buildHashOnce.Do(func() {
		if buildHash != "" {
			return
		}
		info, ok := debug.ReadBuildInfo()
		if !ok {
			buildHash = "dev"
			return
		}
		buildHash = hashFromSettings(info.Settings)
	})
	return buildHash
}

func hashFromSettings(settings []debug.BuildSetting) string {
	var revision, stamp string
	dirty := false
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.time":
			stamp = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if revision == "" {
		return "dev"
	}
	if len(revision) > 8 {
		revision = revision[:8]
	}

	hash := revision
	if t, err := time.Parse(time.RFC3339, stamp); err == nil {
		hash = t.UTC().Format("060102") + "-" + revision
	}
	if dirty {
		hash += "+dirty"
	}
	return hash
}
