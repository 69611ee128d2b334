package main

import (
	"github.com/veedubyou/cover-gen-be/src/worker/internal/application"
)

func main() {
	app := application.NewApp()
	if err := app.Start(); err != nil {
		panic(err)
	}
}
