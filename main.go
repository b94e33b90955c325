/*
Copyright © 2026 Tim Malone
*/
package main

import "github.com/tdmalone/slackemon-sub000/cmd"

func main() {
	cmd.Execute()
}
