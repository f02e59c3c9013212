// Package testutil contains helper builders and utilities used across tests
// to reduce boilerplate when constructing conversations and scripted models
// that play both the classifier and the personas. They are not intended for
// production usage.
package testutil
