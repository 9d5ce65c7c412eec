package main

import (
	"os"

	"heroscope/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
