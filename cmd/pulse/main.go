package main

import (
	"os"

	"pulsek12.com/pulse/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
