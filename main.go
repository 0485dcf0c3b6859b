package main

import "schoolcrm/internal/app"

// @title           School CRM API
// @version         1.0
// @description     Sales pipeline engine for a school management system.

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	app.Run()
}
