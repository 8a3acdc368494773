// Package server serves the deploy board over HTTP.
//
// Every page load builds a fresh board on an in-memory history positioned
// at the request URL, waits for its data (bounded by RenderTimeout) and
// renders it. Redirecting routes surface as HTTP redirects.
//
// The page then opens a websocket to /_board/live. The server keeps one
// board per live session: the browser reports link clicks and popstate,
// and the server pushes history writes, re-rendered views and the loading
// flag. Frames are JSON objects with a "type" field:
//
//	client → server: navigate{to,params,query,replace}, navigate{url},
//	                 popstate{url}, ping
//	server → client: push{url}, replace{url}, assign{url},
//	                 render{html}, loading{pending}, error{message}
package server
