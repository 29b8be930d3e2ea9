/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/sapiencia-analitica/matricula-portal/cmd"

func main() {
	cmd.Execute()
}
