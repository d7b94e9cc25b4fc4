package main

import "github.com/ValentinKolb/kvguard/cmd"

func main() {
	cmd.Execute()
}
