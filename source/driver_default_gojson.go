// Package source installs the go-json token driver as the default JSON driver
// when imported for side effects.
package source

import (
	"github.com/reoring/confdoc"
	drvgojson "github.com/reoring/confdoc/source/gojson"
)

func init() { confdoc.SetJSONDriver(drvgojson.Driver()) }
