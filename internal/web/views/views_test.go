package views

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestUploadPage(t *testing.T) {
	var buf bytes.Buffer
	if err := UploadPage(UploadPageData{MaxFileSizeMB: 10, HistoryURL: "/api/history"}).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	html := buf.String()

	for _, want := range []string{
		"<!doctype html>", `name="file"`, `accept=".xlsx,.xls,.csv"`, `id="sheet"`,
		".xlsx, .xls or .csv, up to 10 MB", `href="/api/history"`, "/api/convert",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("upload page missing %q", want)
		}
	}
}

func TestUploadPage_NoHistory(t *testing.T) {
	var buf bytes.Buffer
	UploadPage(UploadPageData{MaxFileSizeMB: 10}).Render(context.Background(), &buf)

	if strings.Contains(buf.String(), "Recent conversions") {
		t.Error("history link rendered without a history URL")
	}
}

func TestErrorPage_Escapes(t *testing.T) {
	var buf bytes.Buffer
	if err := ErrorPage(`Sheet "<b>" not found`, "Check the name", "SHEET001").Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	html := buf.String()

	if !strings.Contains(html, "<title>Error</title>") {
		t.Errorf("error page not wrapped in layout: %s", html)
	}
	if strings.Contains(html, "<b>") {
		t.Error("message was not escaped")
	}
	if !strings.Contains(html, "Code: SHEET001") || !strings.Contains(html, "Check the name") {
		t.Errorf("error page = %s", html)
	}
}

func TestErrorPage_NoAction(t *testing.T) {
	var buf bytes.Buffer
	if err := ErrorPage("Something went wrong", "", "SYS001").Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if strings.Contains(buf.String(), "<p></p>") {
		t.Error("empty action rendered")
	}
}
