/* ipp-probe - IPP printer capability and status discovery
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * UUID normalizer
 */

package ippprobe

import (
	"strings"

	"github.com/google/uuid"
)

// UUIDNormalize parses printer-uuid and reformats it into
// the standard form (xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx).
//
// The urn: and uuid: prefixes are accepted, as well as the
// forms uuid.Parse understands. If input is not a valid UUID,
// it returns an empty string
func UUIDNormalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "urn:")
	s = strings.TrimPrefix(s, "uuid:")

	u, err := uuid.Parse(s)
	if err != nil {
		return ""
	}

	return u.String()
}
