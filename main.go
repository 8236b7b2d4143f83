package main

import "incircuit-go/app"

func main() {
	app.Main()
}
