package web

import "embed"

// TemplatesFS embeds the server-rendered pages.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds scripts and stylesheets.
//
//go:embed static/*
var StaticFS embed.FS
