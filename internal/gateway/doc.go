// Package gateway is the HTTP front of the wiki.
//
// Handlers translate web requests into bus messages through a
// wikiclient.Client and render the replies as HTML. The gateway never
// touches the database.
//
// Routes:
//
//	GET  /            index of all pages
//	GET  /wiki/:page  render a page, or an editor for a new one
//	POST /save        create-page or save-page, then redirect to the page
//	POST /create      redirect to the editor for a new page name
//	POST /delete      delete-page, then redirect to the index
package gateway
