package main

import "github.com/MeKo-Tech/texsynth/internal/cmd"

func main() {
	cmd.Execute()
}
