package resources

import "embed"

//go:embed migrations seed
var FS embed.FS
