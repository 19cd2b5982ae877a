// Package views renders the HTML pages of the export UI as templ components.
//
// The *_templ.go files are generated from the .templ sources with
// `templ generate`; edit the .templ files, not the generated code.
package views

//go:generate templ generate

// UploadPageData is the model for the upload page.
type UploadPageData struct {
	MaxFileSizeMB int64
	HistoryURL    string // empty hides the history link
}
