// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pkginfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

const Name = "pvelt"

var (
	BuildDate  string
	CommitHash string
	Version    string
)

// BuildVersionString returns the multi-line version banner printed by `pvelt version`
func BuildVersionString() string {
	return fmt.Sprintf(`%s %s %s/%s

Build Date: %s
Commit: %s
Built with: %s`, Name, versionOrDev(), runtime.GOOS, runtime.GOARCH, BuildDate, CommitHash, runtime.Version())
}

// ShortVersion is used in the User-Agent of outbound requests
func ShortVersion() string {
	return fmt.Sprintf("%s/%s", Name, versionOrDev())
}

func versionOrDev() string {
	if strings.TrimSpace(Version) == "" {
		return "dev"
	}
	return Version
}

// ModulePath is the main module the binary was built from
func ModulePath() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok || buildInfo.Main.Path == "" {
		return "github.com/penny-vault/" + Name
	}
	return buildInfo.Main.Path
}

// GetDependencyList returns every module linked into the binary as `path="version"`
func GetDependencyList() []string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		log.Error().Msg("could not read build info")
		return nil
	}

	deps := make([]string, 0, len(buildInfo.Deps))
	for _, dep := range buildInfo.Deps {
		deps = append(deps, fmt.Sprintf("%s=%q", dep.Path, dep.Version))
	}

	sort.Strings(deps)
	return deps
}
