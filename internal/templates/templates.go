package templates

import (
	"embed"
	"html/template"
)

//go:embed *.html
var htmlFiles embed.FS

var Home *template.Template

func Init(cssAssetPath, jsAssetPath string) error {
	funcs := template.FuncMap{
		"CSSAssetPath": func() string { return cssAssetPath },
		"JSAssetPath":  func() string { return jsAssetPath },
	}
	tmpls, err := template.New("all").Funcs(funcs).ParseFS(htmlFiles, "*.html")
	if err != nil {
		return err
	}
	Home = ensure(tmpls, "home.html")
	return nil
}

func ensure(templates *template.Template, name string) *template.Template {
	tmpl := templates.Lookup(name)
	if tmpl == nil {
		panic("template " + name + " not found")
	}
	return tmpl
}
