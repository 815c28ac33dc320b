// Package migrations embeds the schema owned by the recommendation service.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
