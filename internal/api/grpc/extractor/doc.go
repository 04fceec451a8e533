// Package extractor exposes workbook extraction over gRPC.
//
// The service is excelform.v1.FormExtractor with a single unary method,
// ExtractSECCF. Requests and responses are google.protobuf.Struct messages,
// so the service descriptor is declared here instead of being generated.
//
// Request fields:
//
//	workbook       string, base64 encoded xlsx document
//	path           string, workbook path on the server host
//	company_names  list of strings, optional
//
// Exactly one of workbook and path must be set. The response mirrors the
// JSON response of the CLI (status, message, data) plus cached and producer.
package extractor
