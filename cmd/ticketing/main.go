// @title Ticketing API
// @version 1.0
// @description Create events, register attendees and read registration counts.
// @BasePath /
package main

import "ticketing/cmd/ticketing/cmd"

func main() {
	cmd.Execute()
}
