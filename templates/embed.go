// Package templates embeds the project templates shipped with the binary.
// Each directory is one template; catalog.yaml describes them.
package templates

import "embed"

// FS holds catalog.yaml and one directory per template slug. The all:
// prefix keeps dotfiles such as .env.example and .gitignore.
//
//go:embed catalog.yaml all:fullstack-web-app all:landing-page all:mobile-app all:api-service
var FS embed.FS
