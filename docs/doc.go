// Package docs provides generated OpenAPI documentation.
//
// Bedtime API
//
//	@title			Bedtime API
//	@version		1.0
//	@description	Generate, save and export bedtime stories.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/bedtime
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8420
//	@BasePath	/
//
//	@schemes	http
package docs

//go:generate swag init -g ../cmd/bedtime/serve.go -o ./swagger --parseDependency --parseInternal
