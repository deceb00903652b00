package main

import "github.com/ndewijer/Classroom-Bank-Backend/cmd/ledgerctl/cmd"

func main() {
	cmd.Execute()
}
