package main

import "github.com/joemagnusbizdev/magnus-garmin-ecc/cmd"

func main() {
	cmd.Execute()
}
