package main

import "github.com/oshokin/excel-form-extractor/cmd/form-extractor-packager/cmd"

func main() {
	cmd.Execute()
}
