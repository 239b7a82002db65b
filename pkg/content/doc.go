// Package content produces the text a coordinator sends or files: WhatsApp
// messages, formal letters, initiative drafts and the periodic report, plus
// the dashboard statistics they draw on. Templates live in templates/ and
// are embedded at build time.
package content
