// Package report renders statistics reports in text, JSON, and
// GitHub Flavored Markdown formats for the stats command.
package report
