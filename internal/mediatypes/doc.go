// Package mediatypes defines the media formats the conversion service
// accepts and produces.
//
// The service takes exactly one input type (WebM video) and produces exactly
// one output type (MP4 with H.264 video and AAC audio). Declared content
// types are compared by their base media type, so browser-supplied
// parameters such as "video/webm;codecs=vp8,opus" still match.
package mediatypes
