// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UniqueID returns a prefixed identifier built from a timestamp and a
// short random component (e.g. "REQ-20260114093045-a1b2c3").
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%s-%s",
		prefix, time.Now().Format("20060102150405"), uuid.NewString()[:6])
}
