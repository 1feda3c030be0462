/* ipp-probe - IPP printer capability and status discovery
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Resource path fallback
 */

package ippprobe

import (
	"net/url"
)

// ResourcePaths lists HTTP resource paths, tried in order, when
// printer responds with "not found" to the current one.
var ResourcePaths = []string{"/ipp/print", "/"}

// NextResourcePath rewrites printer URI to use the next resource
// path from ResourcePaths.
//
// The path only advances, it never wraps. If current path is the
// last one or is not in ResourcePaths at all, it returns false
func NextResourcePath(uri string) (string, bool) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", false
	}

	current := u.Path
	if current == "" {
		current = "/"
	}

	for i, path := range ResourcePaths {
		if path == current && i+1 < len(ResourcePaths) {
			u.Path = ResourcePaths[i+1]
			u.RawPath = ""
			return u.String(), true
		}
	}

	return "", false
}
