package ui

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

//go:embed methodology.md
var methodologySource []byte

const methodologyShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Methodology</title>
<style>
body { max-width: 48rem; margin: 2rem auto; padding: 0 1rem; font-family: system-ui, sans-serif; line-height: 1.6; color: #1f2937; }
code, pre { background: #f3f4f6; border-radius: 4px; }
pre { padding: 0.75rem; overflow-x: auto; }
code { padding: 0.1rem 0.3rem; }
h1, h2 { border-bottom: 1px solid #e5e7eb; padding-bottom: 0.3rem; }
</style>
</head>
<body>
`

// handleMethodology renders the embedded methodology notes as HTML.
func (s *Server) handleMethodology(c *gin.Context) {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	body := markdown.ToHTML(methodologySource, p, renderer)

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, methodologyShell+string(body)+"</body>\n</html>\n")
}
