package main

// General API documentation for swaggo. Run `swag init -g cmd/artd/docs.go` to generate docs.
//
// @title           artd API
// @version         1.0
// @description     HTTP API for the art generation worker pool: status, output log, pause/resume and prompt file control.
//
// @contact.name   artd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /api
//
// @schemes http
