package main

import "github.com/andresmejia3/interviewlens/cmd"

func main() {
	cmd.Execute()
}
