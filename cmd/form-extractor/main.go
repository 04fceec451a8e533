package main

import "github.com/oshokin/excel-form-extractor/cmd/form-extractor/cmd"

func main() {
	cmd.Execute()
}
