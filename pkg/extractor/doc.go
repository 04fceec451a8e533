// Package extractor reads Supplier Export Control Classification Form (SECCF)
// workbooks and returns their content as structured data.
//
// Fields are located by label rather than by fixed address: every field has a
// set of label terms and candidate label cells, and the value is read from a
// cell a fixed number of columns to the right of the matching label. Checkbox
// fields read the checked state of a form control anchored at that cell.
//
// The package is also compiled into the py_excel_form_extractor CPython
// extension, so ExtractSECCF keeps a binding-friendly signature.
package extractor
