// Package web は画面のテンプレートを埋め込みで提供します。
package web

import (
	"embed"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates はすべての画面テンプレートを解析して返します。
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"date": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.Format("Jan 2, 2006")
		},
	}).ParseFS(templateFS, "templates/*.html")
}
