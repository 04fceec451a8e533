// Package rest exposes workbook extraction over HTTP.
//
//	POST /v1/extract/seccf?company=NAME   body: xlsx document
//	GET  /healthz
//
// Responses use the JSON envelope of the CLI: status, message and data.
package rest
