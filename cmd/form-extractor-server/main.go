package main

import "github.com/oshokin/excel-form-extractor/cmd/form-extractor-server/cmd"

func main() {
	cmd.Execute()
}
