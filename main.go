package main

import (
	"os"

	"github.com/GoLDAP-Portal/GoLDAP-Portal/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
