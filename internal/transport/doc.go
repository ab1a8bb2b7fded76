// Package transport carries signed requests to the zkgit server.
//
// Requests are POSTed as URL-encoded forms (multipart for uploads) with the
// fields in canonical order. Answers are flat JSON objects decoded into a
// Reply; file downloads are streamed straight to the caller's writer.
package transport
