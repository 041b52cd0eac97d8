// Package extension defines the marketplace extension identifier, the
// "publisher.name" pair every other package uses to address an extension.
package extension
