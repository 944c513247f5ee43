// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gudafem

import (
	"fmt"
	"runtime/debug"
)

const modulePath = "github.com/LynnColeArt/gudafem"

// Version returns the module version and checksum recorded in the running
// binary. Both are empty when the binary was built without module support.
func Version() (version, sum string) {
	b, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	for _, m := range b.Deps {
		if m.Path != modulePath {
			continue
		}
		if r := m.Replace; r != nil {
			switch {
			case r.Version != "" && r.Path != "":
				return fmt.Sprintf("%s=>%s %s", m.Version, r.Path, r.Version), r.Sum
			case r.Version != "":
				return fmt.Sprintf("%s=>%s", m.Version, r.Version), r.Sum
			default:
				return fmt.Sprintf("%s=>%s", m.Version, r.Path), r.Sum
			}
		}
		return m.Version, m.Sum
	}
	if b.Main.Path == modulePath {
		return b.Main.Version, b.Main.Sum
	}
	return "", ""
}
