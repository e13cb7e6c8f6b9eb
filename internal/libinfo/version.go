/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package libinfo provides the version of the action server module.
package libinfo

import (
	"regexp"
	"runtime/debug"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ModulePath is the path of the action server Go module.
const ModulePath = "github.com/acronis/go-actionserver"

// PrometheusVersionLabel is a const label added to the action server metrics.
const PrometheusVersionLabel = "action_server_version"

// AddPrometheusVersionLabel returns a copy of labels with the action server version label.
func AddPrometheusVersionLabel(labels prometheus.Labels) prometheus.Labels {
	labelsCopy := make(prometheus.Labels, len(labels)+1)
	for k, v := range labels {
		labelsCopy[k] = v
	}
	labelsCopy[PrometheusVersionLabel] = Version()
	return labelsCopy
}

var version string
var versionOnce sync.Once

// Version returns the module version from the build info ("v0.0.0" if it is unknown).
func Version() string {
	versionOnce.Do(func() {
		if buildInfo, ok := debug.ReadBuildInfo(); ok {
			version = extractVersion(buildInfo, ModulePath)
		}
		if version == "" || version == "(devel)" {
			version = "v0.0.0"
		}
	})
	return version
}

// extractVersion looks for the module either as the main module (the action server binary)
// or as a dependency (a custom binary that imports action server packages).
// The module path may have a major version suffix ("/v2").
func extractVersion(buildInfo *debug.BuildInfo, modPath string) string {
	if buildInfo == nil {
		return ""
	}
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(modPath) + `(/v[0-9]+)?$`)
	if re.MatchString(buildInfo.Main.Path) {
		return buildInfo.Main.Version
	}
	for _, dep := range buildInfo.Deps {
		if re.MatchString(dep.Path) {
			return dep.Version
		}
	}
	return ""
}
