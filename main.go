package main

import "github.com/ValentinKolb/tstore/cmd"

func main() {
	cmd.Execute()
}
