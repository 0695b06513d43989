package main

import "jobbridge_backend/internal/app"

func main() {
	app.Run()
}
