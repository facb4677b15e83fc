// Package main book rental API.
//
// @title           Book Rental API
// @version         1.0
// @description     Book catalog with stock counts and a rental ledger.
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import "bookrental/cmd"

func main() {
	cmd.Execute()
}
