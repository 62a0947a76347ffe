// Package server exposes the tagger over HTTP.
//
// Two routes: GET / serves an upload form, POST /evaluate accepts
// multipart images and returns predictions as an HTML gallery or a
// JSON array, selected by the format parameter.
package server
