package main

import (
	"github.com/joho/godotenv"

	"github.com/jasonDeichert/path-of-claude/cmd"
)

func main() {
	// Optional; LADDER_* variables may come from the environment instead.
	_ = godotenv.Load()
	cmd.Execute()
}
