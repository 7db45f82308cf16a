// Package tmpl embeds the admin dashboard templates: layouts, pages and error pages.
package tmpl

import "embed"

// FS holds the templates under admin/.
//
//go:embed admin/layouts/*.gohtml admin/pages/*.gohtml admin/errors/*.gohtml
var FS embed.FS
