package main

import "github.com/oshokin/alarm-clock/cmd/alarm-checker/cmd"

func main() {
	cmd.Execute()
}
