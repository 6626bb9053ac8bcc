// Package version returns tlvcodec version information.
package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Version records tlvcodec version information.
type Version struct {
	Version string    `json:"version"`
	Commit  string    `json:"commit"`
	Date    time.Time `json:"date"`
	Dirty   bool      `json:"dirty"`
	Go      string    `json:"go"`
}

func (v Version) String() string {
	return v.Version
}

// V contains tlvcodec version information.
var V = fromBuildInfo(debug.ReadBuildInfo())

func fromBuildInfo(bi *debug.BuildInfo, ok bool) (v Version) {
	v = Version{
		Version: "development",
		Commit:  "unknown",
		Date:    time.Now(),
		Dirty:   true,
	}
	if !ok {
		return v
	}
	v.Go = bi.GoVersion

	bs := map[string]string{}
	for _, kv := range bi.Settings {
		bs[kv.Key] = kv.Value
	}
	dt, e := time.Parse(time.RFC3339, bs["vcs.time"])
	if bs["vcs"] != "git" || len(bs["vcs.revision"]) != 40 || e != nil {
		return v
	}

	v.Commit, v.Date, v.Dirty = bs["vcs.revision"], dt, bs["vcs.modified"] == "true"
	dirty := ""
	if v.Dirty {
		dirty = "-dirty"
	}
	v.Version = fmt.Sprintf("v0.0.0-%s-%s%s", v.Date.UTC().Format("20060102150405"), v.Commit[:12], dirty)
	return v
}
