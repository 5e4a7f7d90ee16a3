package main

import "github.com/MeKo-Tech/ocrheader/cmd/ocrheader/cmd"

func main() {
	cmd.Execute()
}
