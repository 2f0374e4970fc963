package main

import "account-mirror/cmd"

func main() {
	cmd.Execute()
}
