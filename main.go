package main

import "the-arch-backend/cmd"

func main() {
	cmd.Run()
}
