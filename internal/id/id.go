// Package id generates opaque identifiers for users and requests.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Generate returns a 21-character alphanumeric nanoid.
func Generate() string {
	return generate(21)
}

// Short returns a 10-character alphanumeric nanoid for request correlation.
func Short() string {
	return generate(10)
}

func generate(size int) string {
	id, err := gonanoid.Generate(alphabet, size)
	if err != nil {
		panic(fmt.Sprintf("generate nanoid: %v", err))
	}
	return id
}
